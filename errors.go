package fossil

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/fossillogic/fossil-test/exitcodes"
)

// RuntimeError represents an operational error that should lead to exit code 2
// Examples include bad options, an unreadable config file or an unknown
// test group.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError reports a run that finished with failed cases (exit code 1)
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}

// ExitCode maps an error returned by the application to a process exit code.
// Errors that are neither typed nor an ExitCoder come from flag parsing or
// setup and count as runtime errors.
func ExitCode(err error) int {
	var exitErr cli.ExitCoder
	switch {
	case err == nil:
		return exitcodes.Success
	case IsRuntimeError(err):
		return exitcodes.RuntimeErr
	case IsTestFailureError(err):
		return exitcodes.TestFailure
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	default:
		return exitcodes.RuntimeErr
	}
}
