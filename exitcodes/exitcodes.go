// Package exitcodes defines the standard exit codes used by larch.
package exitcodes

// Exit code constants used by the larch binary and by isolated test child
// processes:
//
// * Success (0): all tests passed
// * TestFailure (1): one or more tests failed
// * RuntimeErr (2): runtime errors such as fatal configuration problems or panics
// * WatchdogKill (3): an isolated test child was terminated by its watchdog
const (
	Success      = 0
	TestFailure  = 1
	RuntimeErr   = 2
	WatchdogKill = 3
)
