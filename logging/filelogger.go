package logging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/fossillogic/fossil-test/types"
	"github.com/fossillogic/fossil-test/ui"
)

const (
	RunDirectoryPrefix = "testrun-" // Standardized prefix for run directories
	SummaryFilename    = "summary.log"
	MarkdownFilename   = "summary.md"
	AllLogsFilename    = "all.log"
	ResultsFilename    = "results.jsonl"
	ConfigFilename     = "config.json"

	passedDir = "passed"
	failedDir = "failed"
)

var errEmptyRunID = errors.New("runID cannot be empty")

// CaseResult is a finished case together with the suite it ran in
type CaseResult struct {
	Suite string
	Case  *types.Case
}

// ResultSink is an interface for different ways of consuming case results
type ResultSink interface {
	// Consume processes a single case result
	Consume(result *CaseResult, runID string) error
	// Complete is called when all results have been consumed
	Complete(runID string) error
}

// FileLogger writes the artifacts of a run into testrun-<runID> under a
// base directory.
type FileLogger struct {
	baseDir string
	runDir  string
	runID   string

	mu      sync.Mutex
	sinks   []ResultSink
	writers map[string]*QueuedFile
}

// NewFileLogger creates the run directory and the default sinks
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, errEmptyRunID
	}
	if baseDir == "" {
		return nil, errors.New("base directory cannot be empty")
	}

	runDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	for _, dir := range []string{runDir, filepath.Join(runDir, failedDir), filepath.Join(runDir, passedDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	logger := &FileLogger{
		baseDir: baseDir,
		runDir:  runDir,
		runID:   runID,
		writers: make(map[string]*QueuedFile),
	}
	logger.sinks = []ResultSink{
		&AllLogsFileSink{logger: logger},
		&PerCaseFileSink{logger: logger, files: make(map[*types.Case]caseFile)},
		&JSONLinesSink{logger: logger},
	}
	return logger, nil
}

// AddSink registers an additional result consumer
func (l *FileLogger) AddSink(sink ResultSink) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinks = append(l.sinks, sink)
}

// writerFor returns the queued writer of path, opening it on first use
func (l *FileLogger) writerFor(path string) (*QueuedFile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if w, ok := l.writers[path]; ok {
		return w, nil
	}
	w, err := OpenQueuedFile(path)
	if err != nil {
		return nil, err
	}
	l.writers[path] = w
	return w, nil
}

func (l *FileLogger) closeWriters() error {
	l.mu.Lock()
	writers := l.writers
	l.writers = make(map[string]*QueuedFile)
	l.mu.Unlock()

	var errs []error
	for _, w := range writers {
		errs = append(errs, w.Close())
	}
	return errors.Join(errs...)
}

// RunDirectory returns the artifact directory of runID below the base
// directory
func (l *FileLogger) RunDirectory(runID string) (string, error) {
	if runID == "" {
		return "", errEmptyRunID
	}
	if runID == l.runID {
		return l.runDir, nil
	}
	return filepath.Join(l.baseDir, RunDirectoryPrefix+runID), nil
}

func (l *FileLogger) fileForRunID(runID, name string) (string, error) {
	dir, err := l.RunDirectory(runID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// LogCaseResult feeds a finished case through every sink
func (l *FileLogger) LogCaseResult(suite string, tc *types.Case, runID string) error {
	if runID == "" {
		return errEmptyRunID
	}

	l.mu.Lock()
	sinks := slices.Clone(l.sinks)
	l.mu.Unlock()

	result := &CaseResult{Suite: suite, Case: tc}
	for _, sink := range sinks {
		if err := sink.Consume(result, runID); err != nil {
			return fmt.Errorf("case %s: %w", tc.Name, err)
		}
	}
	return nil
}

// LogSummary writes the rendered summary with ANSI escapes removed
func (l *FileLogger) LogSummary(summary string, runID string) error {
	if runID == "" {
		return errEmptyRunID
	}
	path, err := l.fileForRunID(runID, SummaryFilename)
	if err != nil {
		return err
	}
	w, err := l.writerFor(path)
	if err != nil {
		return err
	}
	return w.Write([]byte(stripansi.Strip(summary)))
}

// WriteConfigSnapshot stores the effective configuration of the run
func (l *FileLogger) WriteConfigSnapshot(snapshot types.EffectiveConfigSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config snapshot: %w", err)
	}
	path := filepath.Join(l.runDir, ConfigFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config snapshot: %w", err)
	}
	return nil
}

// Complete lets every sink finish and flushes the queued files. Files are
// flushed even when a sink fails.
func (l *FileLogger) Complete(runID string) error {
	if runID == "" {
		return errEmptyRunID
	}
	l.mu.Lock()
	sinks := slices.Clone(l.sinks)
	l.mu.Unlock()

	var errs []error
	for _, sink := range sinks {
		if err := sink.Complete(runID); err != nil {
			errs = append(errs, fmt.Errorf("completing sink: %w", err))
		}
	}
	errs = append(errs, l.closeWriters())
	return errors.Join(errs...)
}

// Dir is the artifact directory of the current run
func (l *FileLogger) Dir() string {
	return l.runDir
}

func (l *FileLogger) RunID() string {
	return l.runID
}

// safeFilename converts a string to a safe filename by replacing problematic characters
func safeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
		"\"", "_", "<", "_", ">", "_", "|", "_", " ", "_", "...", "",
	)
	return replacer.Replace(s)
}

// AllLogsFileSink appends a block per case to all.log
type AllLogsFileSink struct {
	logger *FileLogger
}

func (s *AllLogsFileSink) Consume(result *CaseResult, runID string) error {
	path, err := s.logger.fileForRunID(runID, AllLogsFilename)
	if err != nil {
		return err
	}
	w, err := s.logger.writerFor(path)
	if err != nil {
		return err
	}
	return w.Write([]byte(formatCaseBlock(result)))
}

func (s *AllLogsFileSink) Complete(runID string) error {
	return nil
}

// caseBlockWidth is the outer width of the boxed case header
const caseBlockWidth = 72

func formatCaseBlock(result *CaseResult) string {
	tc := result.Case
	var content strings.Builder

	content.WriteString("\n")
	content.WriteString(ui.BuildBoxHeader("CASE: "+tc.Name, caseBlockWidth))
	content.WriteString(ui.BuildBoxLine(fmt.Sprintf("Status:     %s", tc.Status), caseBlockWidth))
	content.WriteString(ui.BuildBoxLine(fmt.Sprintf("Suite:      %s", result.Suite), caseBlockWidth))
	content.WriteString(ui.BuildBoxLine(fmt.Sprintf("Duration:   %s", formatDuration(tc.ExecutionTime)), caseBlockWidth))
	content.WriteString(ui.BuildBoxLine(fmt.Sprintf("Iterations: %d", tc.Iterations), caseBlockWidth))
	content.WriteString(ui.BuildBoxLine(fmt.Sprintf("Assertions: %d", tc.Assertions), caseBlockWidth))
	if tags := tc.TagList(); tags != "" {
		content.WriteString(ui.BuildBoxLine("Tags:       "+tags, caseBlockWidth))
	}
	content.WriteString(ui.BuildBoxFooter(caseBlockWidth))
	content.WriteString("\n")

	if tc.FailureMessage != "" {
		fmt.Fprintf(&content, "FAILURE:\n")
		fmt.Fprintf(&content, "~~~~~~~~\n")
		fmt.Fprintf(&content, "%s\n", stripansi.Strip(tc.FailureMessage))
		if loc := tc.Location(); loc != "" {
			fmt.Fprintf(&content, "  at %s\n", loc)
		}
		fmt.Fprintf(&content, "\n")
	}
	return content.String()
}

// PerCaseFileSink writes one file per case into passed/ or failed/. Files
// are prefixed with the order in which the sink first saw each case, so
// cases sharing a name do not collide. A case reported again replaces its
// previous file, also when it moved between passed/ and failed/.
type PerCaseFileSink struct {
	logger *FileLogger

	mu    sync.Mutex
	files map[*types.Case]caseFile
}

type caseFile struct {
	seq  int
	path string
}

func (s *PerCaseFileSink) Consume(result *CaseResult, runID string) error {
	runDir, err := s.logger.RunDirectory(runID)
	if err != nil {
		return err
	}

	targetDir := filepath.Join(runDir, passedDir)
	if result.Case.Status == types.StatusFail || result.Case.Status == types.StatusTimeout {
		targetDir = filepath.Join(runDir, failedDir)
	}
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", targetDir, err)
	}

	s.mu.Lock()
	prev, seen := s.files[result.Case]
	if !seen {
		prev.seq = len(s.files) + 1
	}
	name := fmt.Sprintf("%04d_%s.log", prev.seq, safeFilename(result.Suite+"_"+result.Case.Name))
	path := filepath.Join(targetDir, name)
	s.files[result.Case] = caseFile{seq: prev.seq, path: path}
	s.mu.Unlock()

	if seen && prev.path != path {
		if err := os.Remove(prev.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove stale case log %s: %w", prev.path, err)
		}
	}
	if err := os.WriteFile(path, []byte(formatCaseBlock(result)), 0644); err != nil {
		return fmt.Errorf("failed to write case log %s: %w", path, err)
	}
	return nil
}

func (s *PerCaseFileSink) Complete(runID string) error {
	return nil
}

// formatDuration formats the duration with an adaptive unit
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.3fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
	default:
		return d.String()
	}
}
