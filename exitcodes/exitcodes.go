// Package exitcodes defines the exit codes used by the fossil test runner.
package exitcodes

// Exit code constants used by the runner:
//
// * Success (0): the run finished without failed cases
// * TestFailure (1): at least one case ended FAIL
// * RuntimeErr (2): bad options, an unreadable config file or another
// error that prevented the run from being evaluated
const (
	Success     = 0 // No failed cases
	TestFailure = 1 // Failed cases
	RuntimeErr  = 2 // Configuration or runtime errors
)
