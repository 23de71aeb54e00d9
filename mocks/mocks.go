// Package mocks keeps the bookkeeping the execution engine needs around mock
// expectations: recording them, recording calls against them, clearing state
// between tests and tallying unmet expectations into the reporter's failure
// count. The constraint-matching engine proper lives outside this core; only
// its ledger is here.
package mocks

import (
	"strings"

	"github.com/larch-testing/larch/assertions"
	"github.com/larch-testing/larch/breadcrumb"
	"github.com/larch-testing/larch/reporter"
)

// Expectation is a recorded expected call. Names are qualified by the
// controller's current breadcrumb scope at recording time.
type Expectation struct {
	name     string
	filename string
	line     int
	want     int
	got      int

	floatArgs    []float64
	argMismatch  bool
	mismatchNote string
}

// Times sets the expected call count (default 1).
func (e *Expectation) Times(n int) *Expectation {
	e.want = n
	return e
}

// WithFloats records expected float arguments, compared at the precision
// configured in the assertions package.
func (e *Expectation) WithFloats(args ...float64) *Expectation {
	e.floatArgs = args
	return e
}

// Controller is the per-run expectation ledger. It is scoped to one execution
// context, like the breadcrumb it owns.
type Controller struct {
	crumbs       *breadcrumb.Breadcrumb
	expectations []*Expectation
}

// NewController creates an empty controller with a fresh breadcrumb.
func NewController() *Controller {
	return &Controller{crumbs: breadcrumb.New()}
}

// EnterScope pushes a naming scope; expectations recorded until the matching
// LeaveScope are qualified by it.
func (c *Controller) EnterScope(name string) {
	c.crumbs.Push(name)
}

// LeaveScope pops the current naming scope.
func (c *Controller) LeaveScope() {
	c.crumbs.Pop()
}

// scopedName qualifies name with the breadcrumb path, outermost scope first.
func (c *Controller) scopedName(name string) string {
	var parts []string
	c.crumbs.Walk(func(label string, memo interface{}) {
		parts = append(parts, label)
	}, nil)
	parts = append(parts, name)
	return strings.Join(parts, "/")
}

// Expect records an expected call at the given source location.
func (c *Controller) Expect(name, filename string, line int) *Expectation {
	e := &Expectation{
		name:     c.scopedName(name),
		filename: filename,
		line:     line,
		want:     1,
	}
	c.expectations = append(c.expectations, e)
	return e
}

// Call records an actual call. Calls that match no expectation are ignored;
// judging unexpected calls is the matcher's business, not the ledger's.
func (c *Controller) Call(name string, args ...float64) {
	scoped := c.scopedName(name)
	for _, e := range c.expectations {
		if e.name != scoped || e.got >= e.want {
			continue
		}
		e.got++
		if len(e.floatArgs) > 0 && !floatsMatch(e.floatArgs, args) {
			e.argMismatch = true
			e.mismatchNote = "arguments did not match at the configured precision"
		}
		return
	}
}

func floatsMatch(want, got []float64) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if !assertions.FloatsEqual(want[i], got[i]) {
			return false
		}
	}
	return true
}

// Reset clears all recorded expectations and calls, and drops any naming
// scope still on the breadcrumb. Invoked by the engine before every test.
func (c *Controller) Reset() {
	c.expectations = nil
	for c.crumbs.Depth() > 0 {
		c.crumbs.Pop()
	}
}

// Tally folds outstanding expectations into the reporter's failure count and
// returns the number of violations found. Invoked by the engine after each
// test's teardown.
func (c *Controller) Tally(rep reporter.Reporter) int {
	violations := 0
	for _, e := range c.expectations {
		switch {
		case e.got < e.want:
			violations++
			rep.ShowFail(e.filename, e.line,
				"expected %d call(s) to %s, got %d", e.want, e.name, e.got)
		case e.argMismatch:
			violations++
			rep.ShowFail(e.filename, e.line,
				"call to %s: %s", e.name, e.mismatchNote)
		}
	}
	return violations
}
