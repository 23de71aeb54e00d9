package runner

import (
	"fmt"

	"github.com/larch-testing/larch/reporter"
	"github.com/larch-testing/larch/suite"
)

// Execution phases, as they appear in converted failure messages.
const (
	phaseSetup    = "setup"
	phaseTest     = "test"
	phaseTeardown = "teardown"
)

// runPhase invokes fn with a containment barrier: a panic raised by the
// setup, body or teardown is caught, converted into a failure report at the
// test's source location and recorded as an exception. It never propagates
// past the per-test sequence, so one test's panic cannot abort its siblings
// or ancestors. The phase is not resumed after the first capture.
func (r *Runner) runPhase(phase string, fn func(), t *suite.Test, rep reporter.Reporter) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug("Captured panic", "phase", phase, "test", t.Name)
			rep.ShowFail(t.Filename, t.Line,
				"an exception was thrown during %s: [%s]", phase, panicDetail(rec))
			rep.RecordException()
		}
	}()
	fn()
}

// panicDetail extracts a textual description from a panic value, whatever
// shape the value arrived in.
func panicDetail(v interface{}) string {
	switch d := v.(type) {
	case error:
		return d.Error()
	case string:
		return d
	case fmt.Stringer:
		return d.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}
