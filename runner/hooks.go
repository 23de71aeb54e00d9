package runner

import "github.com/larch-testing/larch/suite"

// Hook precedence is a backward-compatibility rule: for historical reasons a
// suite-level setup or teardown, when present, replaces the test's own
// context hook for the per-test step. At most one source runs per test,
// never both.

// resolveSetup returns the setup hook to run before a test body, or nil when
// neither the suite nor the test's context defines one.
func resolveSetup(s *suite.TestSuite, t *suite.Test) func() {
	if s.HasSetup() {
		return s.Setup
	}
	if t.Context != nil && t.Context.Setup != nil {
		return t.Context.Setup
	}
	return nil
}

// resolveTeardown mirrors resolveSetup for the teardown step.
func resolveTeardown(s *suite.TestSuite, t *suite.Test) func() {
	if s.HasTeardown() {
		return s.Teardown
	}
	if t.Context != nil && t.Context.Teardown != nil {
		return t.Context.Teardown
	}
	return nil
}
