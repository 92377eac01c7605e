package logging

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fassert "github.com/fossillogic/fossil-test/assert"
	"github.com/fossillogic/fossil-test/types"
)

func passingCase() *types.Case {
	tc := types.NewCase("adds numbers", nil, types.WithTags(types.TagFast))
	tc.Status = types.StatusPass
	tc.ExecutionTime = 2 * time.Millisecond
	tc.Iterations = 1
	tc.Assertions = 3
	return tc
}

func failingCase() *types.Case {
	tc := types.NewCase("divides by zero", nil)
	tc.Status = types.StatusFail
	tc.FailureMessage = "\x1b[31mdenominator is zero\x1b[0m"
	tc.Failure = &fassert.Failure{Message: "denominator is zero", File: "math_test.go", Line: 42, Func: "math.TestDivide"}
	tc.ExecutionTime = time.Second
	tc.Iterations = 1
	return tc
}

func TestFileLogger(t *testing.T) {
	tmpDir := t.TempDir()

	runID := "test-run-123"
	logger, err := NewFileLogger(tmpDir, runID)
	require.NoError(t, err)
	assert.Equal(t, runID, logger.RunID())

	baseDir, err := logger.RunDirectory(runID)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, RunDirectoryPrefix+runID), baseDir)
	assert.Equal(t, baseDir, logger.Dir())
	assert.DirExists(t, filepath.Join(baseDir, "passed"))
	assert.DirExists(t, filepath.Join(baseDir, "failed"))

	require.NoError(t, logger.LogCaseResult("math suite", passingCase(), runID))
	require.NoError(t, logger.LogCaseResult("math suite", failingCase(), runID))
	require.NoError(t, logger.LogSummary("\x1b[32mTOTAL 2\x1b[0m\n", runID))
	require.NoError(t, logger.Complete(runID))

	// all.log has both cases with ANSI escapes removed
	allLogs, err := os.ReadFile(filepath.Join(baseDir, AllLogsFilename))
	require.NoError(t, err)
	assert.Contains(t, string(allLogs), "CASE: adds numbers")
	assert.Contains(t, string(allLogs), "CASE: divides by zero")
	assert.Contains(t, string(allLogs), "denominator is zero\n  at math_test.go:42 in math.TestDivide")
	assert.NotContains(t, string(allLogs), "\x1b[")

	// per-case files are split by outcome
	assert.FileExists(t, filepath.Join(baseDir, "passed", "0001_math_suite_adds_numbers.log"))
	assert.FileExists(t, filepath.Join(baseDir, "failed", "0002_math_suite_divides_by_zero.log"))

	summary, err := os.ReadFile(filepath.Join(baseDir, SummaryFilename))
	require.NoError(t, err)
	assert.Equal(t, "TOTAL 2\n", string(summary))
}

func TestPerCaseFiles(t *testing.T) {
	runID := "test-run-cases"
	logger, err := NewFileLogger(t.TempDir(), runID)
	require.NoError(t, err)
	dir := logger.Dir()

	first := types.NewCase("same", nil)
	first.Status = types.StatusPass
	second := types.NewCase("same", nil)
	second.Status = types.StatusPass

	require.NoError(t, logger.LogCaseResult("s", first, runID))
	require.NoError(t, logger.LogCaseResult("s", second, runID))
	assert.FileExists(t, filepath.Join(dir, "passed", "0001_s_same.log"))
	assert.FileExists(t, filepath.Join(dir, "passed", "0002_s_same.log"))

	// the first case fails when the run is repeated
	first.Status = types.StatusFail
	first.FailureMessage = "flaky"
	require.NoError(t, logger.LogCaseResult("s", first, runID))
	require.NoError(t, logger.Complete(runID))

	assert.NoFileExists(t, filepath.Join(dir, "passed", "0001_s_same.log"))
	data, err := os.ReadFile(filepath.Join(dir, "failed", "0001_s_same.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "flaky")
	assert.FileExists(t, filepath.Join(dir, "passed", "0002_s_same.log"))

	passed, err := os.ReadDir(filepath.Join(dir, "passed"))
	require.NoError(t, err)
	assert.Len(t, passed, 1)
}

func TestJSONLinesSink(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "json-run"
	logger, err := NewFileLogger(tmpDir, runID)
	require.NoError(t, err)

	require.NoError(t, logger.LogCaseResult("s", passingCase(), runID))
	require.NoError(t, logger.LogCaseResult("s", failingCase(), runID))
	require.NoError(t, logger.Complete(runID))

	f, err := os.Open(filepath.Join(logger.Dir(), ResultsFilename))
	require.NoError(t, err)
	defer f.Close()

	var records []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, records, 2)

	assert.Equal(t, "PASS", records[0]["status"])
	assert.Equal(t, "adds numbers", records[0]["name"])
	assert.Equal(t, []any{"fast"}, records[0]["tags"])
	assert.Equal(t, "FAIL", records[1]["status"])
	assert.Equal(t, "math_test.go:42 in math.TestDivide", records[1]["location"])
	assert.Equal(t, runID, records[1]["runId"])
}

func TestWriteConfigSnapshot(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "cfg-run")
	require.NoError(t, err)

	opts := types.DefaultOptions()
	opts.Reverse = true
	require.NoError(t, logger.WriteConfigSnapshot(opts.Snapshot("cfg-run", "v1.1.8")))

	data, err := os.ReadFile(filepath.Join(logger.Dir(), ConfigFilename))
	require.NoError(t, err)
	var snap types.EffectiveConfigSnapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.True(t, snap.Ordering.Reverse)
	assert.Equal(t, types.FormatPlain, snap.Output.Format)
	assert.Equal(t, "v1.1.8", snap.Version)
}

type recordingSink struct {
	names     []string
	completed bool
	err       error
}

func (s *recordingSink) Consume(result *CaseResult, runID string) error {
	s.names = append(s.names, result.Case.Name)
	return s.err
}

func (s *recordingSink) Complete(runID string) error {
	s.completed = true
	return nil
}

func TestAddSink(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "sink-run")
	require.NoError(t, err)

	sink := &recordingSink{}
	logger.AddSink(sink)
	require.NoError(t, logger.LogCaseResult("s", passingCase(), "sink-run"))
	require.NoError(t, logger.Complete("sink-run"))
	assert.Equal(t, []string{"adds numbers"}, sink.names)
	assert.True(t, sink.completed)

	sink.err = errors.New("disk full")
	err = logger.LogCaseResult("s", passingCase(), "sink-run")
	assert.ErrorContains(t, err, "disk full")
}

func TestFileLoggerValidation(t *testing.T) {
	_, err := NewFileLogger("", "run")
	assert.Error(t, err)
	_, err = NewFileLogger(t.TempDir(), "")
	assert.Error(t, err)

	logger, err := NewFileLogger(t.TempDir(), "run")
	require.NoError(t, err)
	assert.Error(t, logger.LogCaseResult("s", passingCase(), ""))
	assert.Error(t, logger.LogSummary("x", ""))
	assert.Error(t, logger.Complete(""))
}

func TestQueuedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	q, err := OpenQueuedFile(path)
	require.NoError(t, err)
	for i := range 300 {
		require.NoError(t, q.Write([]byte(fmt.Sprintf("line %d\n", i))))
	}
	require.NoError(t, q.Close())
	require.NoError(t, q.Close(), "close is idempotent")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 300)
	assert.Equal(t, "line 0", lines[0])
	assert.Equal(t, "line 299", lines[299])

	assert.ErrorIs(t, q.Write([]byte("late\n")), errQueueClosed)
}

func TestOpenQueuedFileMissingDir(t *testing.T) {
	_, err := OpenQueuedFile(filepath.Join(t.TempDir(), "missing", "out.log"))
	assert.Error(t, err)
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c_d", safeFilename("a/b:c d"))
	assert.Equal(t, "wait", safeFilename("wait..."))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1.500s", formatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.000ms", formatDuration(2*time.Millisecond))
	assert.True(t, strings.HasSuffix(formatDuration(15*time.Microsecond), "µs"))
}
