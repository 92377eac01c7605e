package fossil

import (
	"context"

	"github.com/ethereum/go-ethereum/log"

	"github.com/fossillogic/fossil-test/runner"
	"github.com/fossillogic/fossil-test/types"
)

// TestExecutor is responsible for running tests.
type TestExecutor interface {
	RunTests(ctx context.Context) error
}

// DefaultTestExecutor implements the TestExecutor interface.
type DefaultTestExecutor struct {
	runner runner.TestRunner
	env    *types.Environment
	logger log.Logger
}

// NewDefaultTestExecutor creates a new DefaultTestExecutor.
func NewDefaultTestExecutor(runner runner.TestRunner, env *types.Environment, logger log.Logger) *DefaultTestExecutor {
	return &DefaultTestExecutor{
		runner: runner,
		env:    env,
		logger: logger,
	}
}

// RunTests runs every registered suite. Outcomes land in the environment
// counters; the error only reports a run that could not complete.
func (e *DefaultTestExecutor) RunTests(ctx context.Context) error {
	e.logger.Info("Running all tests...", "suites", len(e.env.Suites()), "cases", e.env.CaseCount())
	if err := e.runner.RunAll(ctx); err != nil {
		e.logger.Error("Error running tests", "error", err)
		return err
	}
	c := e.env.Counters
	e.logger.Info("Test run completed", "run_id", e.env.RunID,
		"passed", c.Pass, "failed", c.Fail, "skipped", c.Skip, "timeouts", c.Timeout)
	return nil
}
