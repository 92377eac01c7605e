package fossil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/httputil"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"

	"github.com/fossillogic/fossil-test/logging"
	"github.com/fossillogic/fossil-test/metrics"
	"github.com/fossillogic/fossil-test/registry"
	"github.com/fossillogic/fossil-test/reporting"
	"github.com/fossillogic/fossil-test/runner"
	"github.com/fossillogic/fossil-test/types"
	"github.com/fossillogic/fossil-test/ui"
)

// App implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &App{}

// App runs the imported test groups once, prints the summary and exports
// the run artifacts.
type App struct {
	config     *Config
	version    string
	env        *types.Environment
	executor   TestExecutor
	formatter  ResultFormatter
	reporter   MetricsReporter
	fileLogger *logging.FileLogger
	report     *reporting.ReportData

	metricsServer *httputil.HTTPServer

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// Deps are the optional collaborators of an App
type Deps struct {
	Out      io.Writer          // console and summary output, stdout when nil
	Registry *registry.Registry // source of test groups, registry.Default() when nil
}

// New builds the environment from the registered groups and wires the runner,
// summary printer and artifact writers.
func New(config *Config, version string, deps Deps, shutdownCallback func(error)) (*App, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}
	if config.Log == nil {
		config.Log = log.New()
		config.Log.Error("No logger provided, using default")
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Registry == nil {
		deps.Registry = registry.Default()
	}

	config.Log.Debug("Creating app with config",
		"groups", config.Groups,
		"configFile", config.ConfigFile,
		"logDir", config.LogDir,
		"metricsFile", config.MetricsFile,
		"format", config.Options.Format,
		"repeat", config.Options.Repeats(),
		"timeout", config.Options.Timeout)

	env := types.NewEnvironment(config.Options)
	if err := deps.Registry.Import(env, config.Groups...); err != nil {
		return nil, fmt.Errorf("failed to import test groups: %w", err)
	}

	var fileLogger *logging.FileLogger
	if config.LogDir != "" {
		var err error
		fileLogger, err = logging.NewFileLogger(config.LogDir, env.RunID)
		if err != nil {
			return nil, fmt.Errorf("failed to create file logger: %w", err)
		}
	}

	progress := runner.NewNoOpProgressIndicator()
	if config.ShowProgress {
		progress = runner.NewLogProgressIndicator(config.Log, config.ProgressInterval)
	}

	opts := config.Options
	testRunner, err := runner.NewTestRunner(runner.Config{
		Environment: env,
		Log:         config.Log,
		Console:     ui.NewConsoleFromOptions(deps.Out, opts),
		FileLogger:  fileLogger,
		Progress:    progress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create test runner: %w", err)
	}

	formatter, err := NewConsoleResultFormatter(config.Log, deps.Out, opts, version)
	if err != nil {
		return nil, fmt.Errorf("failed to create result formatter: %w", err)
	}

	config.Log.Info("Created test environment", "run_id", env.RunID, "suites", len(env.Suites()), "cases", env.CaseCount())

	return &App{
		config:           config,
		version:          version,
		env:              env,
		executor:         NewDefaultTestExecutor(testRunner, env, config.Log),
		formatter:        formatter,
		reporter:         NewDefaultMetricsReporter(config.MetricsFile, config.Log),
		fileLogger:       fileLogger,
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the tests once. A run with failed cases returns a
// TestFailureError; a run that could not be carried out returns a
// RuntimeError.
// Start implements the cliapp.Lifecycle interface.
func (a *App) Start(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.config.Log.Error("Runtime error occurred", "error", r)
			err = NewRuntimeError(fmt.Errorf("panic during run: %v", r))
		}
	}()

	a.running.Store(true)

	if err := a.startMetricsServer(); err != nil {
		return NewRuntimeError(err)
	}

	if err := a.runTests(ctx); err != nil {
		a.config.Log.Error("Runtime error running tests", "error", err)
		return NewRuntimeError(err)
	}

	if c := a.env.Counters; c.Fail > 0 {
		a.config.Log.Warn("Test run completed with failures, returning exit code 1", "failed", c.Fail, "total", c.Total)
		return NewTestFailureError(fmt.Sprintf("%d of %d cases failed", c.Fail, c.Total))
	}

	a.config.Log.Info("Tests completed, exiting")
	if a.shutdownCallback != nil {
		go a.shutdownCallback(nil)
	}
	return nil
}

// runTests runs all suites and processes the results
func (a *App) runTests(ctx context.Context) error {
	if err := a.executor.RunTests(ctx); err != nil {
		return err
	}

	data, err := a.formatter.FormatResults(a.env)
	if err != nil {
		a.config.Log.Warn("Failed to print summary", "error", err)
		metrics.RecordErrorDetails("summary", err)
		data = reporting.NewReportBuilder().WithVersion(a.version).Build(a.env)
	}
	a.report = data

	a.reporter.ReportResults(a.env)
	a.writeArtifacts(data)
	return nil
}

// writeArtifacts stores the summary and the effective configuration next to
// the case logs. Failures are logged only.
func (a *App) writeArtifacts(data *reporting.ReportData) {
	if a.fileLogger == nil {
		return
	}
	runID := a.env.RunID

	summary, err := reporting.NewTextSummaryFormatter(true).Format(data)
	if err == nil {
		err = a.fileLogger.LogSummary(summary, runID)
	}
	if err != nil {
		a.config.Log.Warn("Failed to write summary log", "error", err)
		metrics.RecordErrorDetails("summary_log", err)
	}

	markdown := reporting.NewReportGenerator(nil, reporting.NewMarkdownFormatter(),
		reporting.NewFileWriter(filepath.Join(a.fileLogger.Dir(), logging.MarkdownFilename)))
	if err := markdown.GenerateReport(data); err != nil {
		a.config.Log.Warn("Failed to write markdown summary", "error", err)
		metrics.RecordErrorDetails("summary_markdown", err)
	}

	if err := a.fileLogger.WriteConfigSnapshot(a.config.Options.Snapshot(runID, a.version)); err != nil {
		a.config.Log.Warn("Failed to write config snapshot", "error", err)
		metrics.RecordErrorDetails("config_snapshot", err)
	}

	if err := a.fileLogger.Complete(runID); err != nil {
		a.config.Log.Warn("Failed to complete file logger", "error", err)
		metrics.RecordErrorDetails("file_logger", err)
	}

	a.config.Log.Info("Wrote run artifacts", "dir", a.fileLogger.Dir())
}

func (a *App) startMetricsServer() error {
	cfg := a.config.MetricsConfig
	if !cfg.Enabled {
		return nil
	}
	a.config.Log.Info("Starting metrics server", "addr", cfg.ListenAddr, "port", cfg.ListenPort)
	srv, err := opmetrics.StartServer(metrics.Registry, cfg.ListenAddr, cfg.ListenPort)
	if err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}
	a.config.Log.Info("Started metrics server", "endpoint", srv.Addr())
	a.metricsServer = srv
	return nil
}

// Stop stops the app.
// Stop implements the cliapp.Lifecycle interface.
func (a *App) Stop(ctx context.Context) error {
	if !a.running.Swap(false) {
		a.config.Log.Debug("App already stopped, nothing to do")
		return nil
	}

	var result error
	if a.metricsServer != nil {
		if err := a.metricsServer.Stop(ctx); err != nil {
			result = errors.Join(result, fmt.Errorf("failed to stop metrics server: %w", err))
		}
	}
	a.config.Log.Debug("App stopped")
	return result
}

// Stopped returns true if the app is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (a *App) Stopped() bool {
	return !a.running.Load()
}

// Environment returns the environment the app runs
func (a *App) Environment() *types.Environment {
	return a.env
}

// Report returns the summary of the last run, nil before Start
func (a *App) Report() *reporting.ReportData {
	return a.report
}
