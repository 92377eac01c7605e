package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/clock"
	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fossillogic/fossil-test/assert"
	"github.com/fossillogic/fossil-test/logging"
	"github.com/fossillogic/fossil-test/metrics"
	"github.com/fossillogic/fossil-test/types"
	"github.com/fossillogic/fossil-test/ui"
)

// TestRunner executes the suites registered in an Environment
type TestRunner interface {
	RunAll(ctx context.Context) error
	RunSuite(ctx context.Context, suite *types.Suite) error
	RunCase(ctx context.Context, suite *types.Suite, tc *types.Case)
}

// Clock is the subset of clock.Clock the runner needs
type Clock interface {
	Now() time.Time
}

// runner struct implements TestRunner interface
type runner struct {
	env        *types.Environment
	log        log.Logger
	clock      Clock
	console    *ui.Console
	fileLogger *logging.FileLogger
	progress   ProgressIndicator
	rng        *rand.Rand
	seed       uint64
	tracker    assert.Tracker
	tracer     trace.Tracer

	// only is resolved when a suite starts
	only bool
}

// Config holds configuration for creating a new runner
type Config struct {
	Environment *types.Environment
	Log         log.Logger
	Clock       Clock               // defaults to the system clock
	Console     *ui.Console         // defaults to stdout honoring the color and quiet options
	FileLogger  *logging.FileLogger // optional artifact writer
	Progress    ProgressIndicator   // optional
}

// NewTestRunner creates a new test runner instance
func NewTestRunner(cfg Config) (TestRunner, error) {
	if cfg.Environment == nil {
		return nil, fmt.Errorf("environment is required")
	}
	opts := cfg.Environment.Options
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.SystemClock
	}
	if cfg.Console == nil {
		cfg.Console = ui.NewConsoleFromOptions(os.Stdout, opts)
	}
	if cfg.Progress == nil {
		cfg.Progress = NewNoOpProgressIndicator()
	}

	seed := opts.Seed
	if !opts.HasSeed {
		seed = uint64(cfg.Clock.Now().UnixNano())
	}

	cfg.Log.Debug("NewTestRunner()", "runID", cfg.Environment.RunID, "suites", len(cfg.Environment.Suites()),
		"reverse", opts.Reverse, "shuffle", opts.Shuffle, "seed", seed, "repeat", opts.Repeats(),
		"timeout", opts.Timeout, "dryRun", opts.DryRun)

	return &runner{
		env:        cfg.Environment,
		log:        cfg.Log,
		clock:      cfg.Clock,
		console:    cfg.Console,
		fileLogger: cfg.FileLogger,
		progress:   cfg.Progress,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed:       seed,
		tracer:     otel.Tracer("fossil test runner"),
	}, nil
}

// RunAll runs every registered suite in list order. Calling it again runs
// everything again and keeps accumulating counters.
func (r *runner) RunAll(ctx context.Context) error {
	opts := r.env.Options
	if opts.DryRun {
		r.console.Notice(ui.DryRunNotice)
		r.log.Info("Dry run, no cases executed", "suites", len(r.env.Suites()), "cases", r.env.CaseCount())
		return nil
	}
	if opts.FailFast {
		r.log.Debug("fail-fast is set; the run continues past failures")
	}

	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("run %s", r.env.RunID))
	defer span.End()

	if r.env.StartTime.IsZero() {
		r.env.StartTime = r.clock.Now()
	}
	// duplicates are only reported within one pass over the suites
	r.tracker.Reset()
	r.log.Debug("Running all suites", "run_id", r.env.RunID, "seed", r.seed)
	r.progress.StartRun(r.env.RunID, r.env.CaseCount())
	defer r.progress.CompleteRun(r.env.RunID)

	var runErr error
	for _, suite := range r.env.Suites() {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("run interrupted before suite %s: %w", suite.Name, err)
			break
		}
		if err := r.RunSuite(ctx, suite); err != nil {
			runErr = fmt.Errorf("running suite %s: %w", suite.Name, err)
			break
		}
	}

	r.env.EndTime = r.clock.Now()
	counters := r.env.Snapshot()
	metrics.RecordRun(r.env.RunID, counters, r.env.Duration())
	span.SetAttributes(
		attribute.Int("cases.total", counters.Total),
		attribute.Int("cases.failed", counters.Fail),
	)
	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
		return runErr
	}
	if counters.Fail > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%d failed", counters.Fail))
	}
	return nil
}

// RunSuite orders the suite's cases and runs them between the suite's
// setup and teardown hooks.
func (r *runner) RunSuite(ctx context.Context, suite *types.Suite) error {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("suite %s", suite.Name))
	defer span.End()

	opts := r.env.Options
	r.only = r.env.HasOnly() || suiteHasOnly(suite)
	r.console.SuiteStarted(suite.Name)

	cases := suite.Cases()
	if opts.Shuffle {
		Shuffle(cases, r.rng)
	}
	if opts.Reverse {
		Reverse(cases)
	}

	r.progress.StartSuite(suite.Name, len(cases))
	start := r.clock.Now()

	var setupErr string
	if suite.Setup != nil {
		if res := invoke(suite.Setup); res.kind != outcomeOK {
			setupErr = "suite setup failed: " + res.describe()
			r.log.Error("Suite setup failed", "suite", suite.Name, "err", setupErr)
			metrics.RecordError("suite_setup")
		}
	}

	var runErr error
	for _, tc := range cases {
		if err := ctx.Err(); err != nil {
			runErr = fmt.Errorf("interrupted before case %s: %w", tc.Name, err)
			break
		}
		if setupErr != "" && !r.excluded(tc) {
			r.failWithoutRunning(ctx, suite, tc, setupErr)
			continue
		}
		r.RunCase(ctx, suite, tc)
	}

	if suite.Teardown != nil {
		if res := invoke(suite.Teardown); res.kind != outcomeOK {
			r.log.Error("Suite teardown failed", "suite", suite.Name, "err", res.describe())
			metrics.RecordError("suite_teardown")
		}
	}

	suite.TotalExecutionTime = r.clock.Now().Sub(start)
	r.console.SuiteFinished(suite)
	r.progress.CompleteSuite(suite.Name)

	stats := suite.Stats()
	span.SetAttributes(
		attribute.Int("cases.total", stats.Total),
		attribute.Int("cases.failed", stats.Fail),
		attribute.Int64("duration_ms", suite.TotalExecutionTime.Milliseconds()),
	)
	if runErr != nil {
		span.SetStatus(codes.Error, runErr.Error())
	}
	return runErr
}

// RunCase runs a single case, records its terminal status and increments
// exactly one environment counter.
func (r *runner) RunCase(ctx context.Context, suite *types.Suite, tc *types.Case) {
	if r.env.Options.DryRun {
		r.console.Notice(ui.DryRunNotice)
		return
	}

	_, span := r.tracer.Start(ctx, fmt.Sprintf("case %s", tc.Name))
	defer span.End()

	tc.ResetResult()
	r.progress.StartCase(tc.Name)

	switch {
	case r.excluded(tc):
		tc.Status = types.StatusSkip
	case tc.Body == nil:
		tc.Status = types.StatusEmpty
	default:
		r.execute(tc)
	}

	r.finishCase(span, suite, tc)
}

// excluded reports whether the case is skipped without being executed
func (r *runner) excluded(tc *types.Case) bool {
	if tc.Mark == types.MarkSkip {
		return true
	}
	if r.only && tc.Mark != types.MarkOnly {
		return true
	}
	if tags := r.env.Options.OnlyTags; len(tags) > 0 && !tc.HasAnyTag(tags) {
		return true
	}
	return false
}

// execute runs setup, the body repeat times and teardown
func (r *runner) execute(tc *types.Case) {
	opts := r.env.Options
	t := assert.NewT(tc.Name)
	tc.Status = types.StatusPass
	panicked := false

	if tc.Setup != nil {
		if res := invoke(tc.Setup); res.kind != outcomeOK {
			r.abort(tc, res, "setup")
		}
	}

	start := r.clock.Now()
	if tc.Status == types.StatusPass {
		for i := 0; i < opts.Repeats(); i++ {
			t.SetIteration(i)
			res := invoke(func() { tc.Body(t) })
			tc.Iterations++
			if res.kind != outcomeOK {
				panicked = res.kind == outcomePanic
				r.abort(tc, res, "")
				break
			}
			if elapsed := r.clock.Now().Sub(start); elapsed > opts.Timeout {
				tc.Status = types.StatusTimeout
				r.log.Warn("Case exceeded timeout", "case", tc.Name, "elapsed", elapsed, "timeout", opts.Timeout, "iteration", i+1)
				break
			}
		}
	}
	tc.ExecutionTime = r.clock.Now().Sub(start)
	tc.Assertions = t.Assertions()

	if tc.Teardown != nil {
		if res := invoke(tc.Teardown); res.kind != outcomeOK && tc.Status == types.StatusPass {
			r.abort(tc, res, "teardown")
		}
	}

	applyMark(tc, panicked)
}

// abort records why a phase of the case stopped early
func (r *runner) abort(tc *types.Case, res invocation, phase string) {
	switch res.kind {
	case outcomeFailure:
		tc.Status = types.StatusFail
		tc.Failure = res.failure
		tc.FailureMessage = res.failure.Message
		duplicate, anomalies := r.tracker.Observe(res.failure)
		if duplicate {
			metrics.RecordDuplicateFailure(r.env.RunID)
		}
		r.console.AssertionFailed(res.failure, duplicate, anomalies)
	case outcomeSkip:
		tc.Status = types.StatusSkip
		r.log.Info("Case skipped at runtime", "case", tc.Name, "reason", res.reason)
	case outcomePanic:
		tc.Status = types.StatusFail
		tc.FailureMessage = res.describe()
		if phase != "" {
			tc.FailureMessage = phase + " " + tc.FailureMessage
		}
		r.log.Debug("Case panicked", "case", tc.Name, "phase", phase, "value", res.value)
	}
}

// applyMark adjusts the outcome of cases that expect a failure, a timeout or
// a panic. The expected outcome turns into PASS; a clean PASS fails because
// the expectation was not met. Other outcomes are left alone.
func applyMark(tc *types.Case, panicked bool) {
	var expected bool
	switch tc.Mark {
	case types.MarkFail:
		expected = tc.Status == types.StatusFail
	case types.MarkTimeout:
		expected = tc.Status == types.StatusTimeout
	case types.MarkError:
		expected = panicked && tc.Status == types.StatusFail
	default:
		return
	}

	switch {
	case expected:
		tc.Status = types.StatusPass
		tc.FailureMessage = ""
		tc.Failure = nil
	case tc.Status == types.StatusPass:
		tc.Status = types.StatusFail
		tc.FailureMessage = fmt.Sprintf("expected %s did not occur", expectation(tc.Mark))
	}
}

func expectation(m types.Mark) string {
	switch m {
	case types.MarkTimeout:
		return "timeout"
	case types.MarkError:
		return "error"
	}
	return "failure"
}

// failWithoutRunning fails a case whose suite could not be set up. Cases
// excluded by marks or tags never get here and stay SKIP.
func (r *runner) failWithoutRunning(ctx context.Context, suite *types.Suite, tc *types.Case, msg string) {
	_, span := r.tracer.Start(ctx, fmt.Sprintf("case %s", tc.Name))
	defer span.End()

	tc.ResetResult()
	tc.Status = types.StatusFail
	tc.FailureMessage = msg
	r.finishCase(span, suite, tc)
}

// finishCase counts the case and publishes its result
func (r *runner) finishCase(span trace.Span, suite *types.Suite, tc *types.Case) {
	r.env.Counters.Record(tc.Status)
	metrics.RecordCase(r.env.RunID, suite.Name, tc.Status, tc.ExecutionTime)
	r.console.CaseFinished(tc)
	r.progress.UpdateCase(tc.Name, tc.Status)

	r.log.Debug("Case finished", "suite", suite.Name, "case", tc.Name, "status", tc.Status,
		"duration", tc.ExecutionTime, "iterations", tc.Iterations, "assertions", tc.Assertions)

	if r.fileLogger != nil {
		if err := r.fileLogger.LogCaseResult(suite.Name, tc, r.env.RunID); err != nil {
			r.log.Warn("Failed to log case result", "case", tc.Name, "err", err)
			metrics.RecordErrorDetails("file_logger", err)
		}
	}

	span.SetAttributes(
		attribute.String("suite", suite.Name),
		attribute.String("status", tc.Status.String()),
		attribute.Int("iterations", tc.Iterations),
	)
	if tc.Status == types.StatusFail || tc.Status == types.StatusTimeout {
		span.SetStatus(codes.Error, tc.FailureMessage)
	}
}

func suiteHasOnly(suite *types.Suite) bool {
	for _, tc := range suite.Cases() {
		if tc.Mark == types.MarkOnly {
			return true
		}
	}
	return false
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeFailure
	outcomeSkip
	outcomePanic
)

// invocation is the result of running one hook or body under recover
type invocation struct {
	kind    outcome
	failure *assert.Failure
	reason  string
	value   any
}

func (i invocation) describe() string {
	switch i.kind {
	case outcomeFailure:
		return i.failure.Message
	case outcomeSkip:
		return "skipped: " + i.reason
	case outcomePanic:
		if err, ok := i.value.(error); ok {
			return "panic: " + err.Error()
		}
		return fmt.Sprintf("panic: %v", i.value)
	}
	return ""
}

// invoke is the single recovery boundary around user code. Assertion
// failures and runtime skips unwind to here.
func invoke(fn func()) (res invocation) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		var failure *assert.Failure
		var skip *assert.SkipSignal
		switch sig := v.(type) {
		case *assert.Failure:
			res = invocation{kind: outcomeFailure, failure: sig}
		case *assert.SkipSignal:
			res = invocation{kind: outcomeSkip, reason: sig.Reason}
		case error:
			if errors.As(sig, &failure) {
				res = invocation{kind: outcomeFailure, failure: failure}
			} else if errors.As(sig, &skip) {
				res = invocation{kind: outcomeSkip, reason: skip.Reason}
			} else {
				res = invocation{kind: outcomePanic, value: v}
			}
		default:
			res = invocation{kind: outcomePanic, value: v}
		}
	}()
	fn()
	return invocation{}
}
