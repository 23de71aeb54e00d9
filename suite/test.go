package suite

import (
	"runtime"
)

// TestContext carries per-test setup and teardown hooks, distinct from the
// hooks of the enclosing suite. The engine resolves which of the two sources
// runs via its precedence rule; the context never wins over a suite hook.
type TestContext struct {
	Name     string
	Setup    func()
	Teardown func()
}

// Test is a leaf in the test tree: a name, a runnable body and an optional
// context. Bodies are not re-entrant; a test executes at most once per engine
// invocation that reaches it.
type Test struct {
	Name     string
	Filename string
	Line     int
	Run      func()
	Context  *TestContext
}

// NewTest creates a leaf test, recording the caller's source location for
// reporting.
func NewTest(name string, body func()) *Test {
	t := &Test{Name: name, Run: body}
	if _, file, line, ok := runtime.Caller(1); ok {
		t.Filename = file
		t.Line = line
	}
	return t
}

// InContext attaches a context to the test and returns it, for chained
// assembly.
func (t *Test) InContext(ctx *TestContext) *Test {
	t.Context = ctx
	return t
}
