// Package reporter defines the callback contract the execution engine drives,
// plus the reporter implementations shipped with larch: a streaming console
// reporter and a JSON-lines wire reporter used to relay events out of isolated
// test processes.
package reporter

// Reporter is the sink for structured lifecycle and failure events. The
// engine is the sole caller and invokes it sequentially; implementations do
// not need to be safe for concurrent use.
type Reporter interface {
	// SetUp resets the run counters. Invoked once before any test runs.
	SetUp()

	StartSuite(name string, testCount int)
	FinishSuite(filename string, line int)
	StartTest(name string)
	FinishTest(filename string, line int)

	// Completion fires after each test and after each suite.
	Completion()

	// ShowFail reports a failure at a source location. Both ordinary
	// assertion failures and exception-conversion messages arrive here.
	ShowFail(filename string, line int, format string, args ...interface{})

	// RecordException notes an uncaught-exception event. The failure itself
	// is reported separately through ShowFail.
	RecordException()

	Failures() int
	Exceptions() int
}

// Base keeps the run counters and provides no-op lifecycle callbacks, for
// embedding in concrete reporters.
type Base struct {
	failures   int
	exceptions int
}

// SetUp resets the counters.
func (b *Base) SetUp() {
	b.failures = 0
	b.exceptions = 0
}

func (b *Base) StartSuite(name string, testCount int) {}
func (b *Base) FinishSuite(filename string, line int) {}
func (b *Base) StartTest(name string)                 {}
func (b *Base) FinishTest(filename string, line int)  {}
func (b *Base) Completion()                           {}

// ShowFail counts a failure. Embedders that render output should override and
// call through.
func (b *Base) ShowFail(filename string, line int, format string, args ...interface{}) {
	b.failures++
}

// RecordException counts an uncaught-exception event.
func (b *Base) RecordException() {
	b.exceptions++
}

// Failures returns the number of failures reported so far.
func (b *Base) Failures() int {
	return b.failures
}

// Exceptions returns the number of uncaught-exception events recorded so far.
func (b *Base) Exceptions() int {
	return b.exceptions
}
