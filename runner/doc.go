// Package runner executes the suites registered in a types.Environment.
//
// The main components are:
//   - TestRunner: runs every suite, every case in a suite, or a single case
//   - Shuffle and Reverse: in-place case ordering applied when a suite starts
//   - ProgressIndicator: run/suite/case lifecycle callbacks for progress output
//
// Each body invocation runs under one recover boundary. Assertion failures
// and runtime skips raised through the assert package unwind to it and end
// the case; the remaining repeat iterations are not executed. Timeouts are
// soft: elapsed time is checked only between iterations, so a body that never
// returns is never interrupted.
package runner
