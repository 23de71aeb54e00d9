// Package runner implements the execution engine: depth-first traversal of
// the test tree, the per-test execution sequence, the legacy setup/teardown
// precedence rule, per-test timeout enforcement and panic-to-failure
// conversion. Process isolation and mock bookkeeping are consumed as
// interfaces; the engine itself never forks and never matches expectations.
package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/larch-testing/larch/assertions"
	"github.com/larch-testing/larch/reporter"
	"github.com/larch-testing/larch/suite"
)

// Bookkeeper is the mock-bookkeeping contract the engine drives around each
// test: a reset before the test and a tally of unmet expectations after its
// teardown.
type Bookkeeper interface {
	Reset()
	Tally(rep reporter.Reporter) int
}

// IsolatedTest describes one leaf test handed to the Isolator.
type IsolatedTest struct {
	// Path is the slash-joined suite path from the root to the test,
	// including the test name. It uniquely addresses the leaf for child
	// processes re-traversing the tree.
	Path     string
	Name     string
	Filename string
	Line     int
	// Timeout is the per-test timeout, zero when none is configured.
	Timeout time.Duration
}

// Isolator runs one leaf test in a fault-contained context and relays exactly
// one outcome per test to the reporter.
type Isolator interface {
	// RunIsolated executes the test described by req. Implementations either
	// invoke run directly behind a containment barrier, or spawn a child
	// process that re-enters the engine; the engine's view is synchronous
	// either way. The context and reporter handed to run are the isolator's
	// to substitute: an isolator that abandons a test may cancel the context
	// and cut the reporter off, so a runaway body cannot deliver a second
	// outcome. The returned error is reserved for runtime errors, never test
	// failures.
	RunIsolated(ctx context.Context, req IsolatedTest, rep reporter.Reporter, run func(ctx context.Context, rep reporter.Reporter) error) error

	// ChildTestPath reports whether the current process is a spawned
	// isolated-test child and, if so, the path of the test it must run.
	ChildTestPath() (string, bool)

	// DieIn arms a watchdog that forcibly terminates the current process
	// after d, when the current process is an isolated-test child. In any
	// other process it is a no-op.
	DieIn(d time.Duration)
}

// Result carries the counter totals of one engine invocation.
type Result struct {
	Failures   int
	Exceptions int
	Duration   time.Duration
	// Success is computed per run mode: a full-suite run requires both
	// counters to be zero, a named run checks failures only.
	Success bool
}

// Config holds configuration for creating a new Runner.
type Config struct {
	Log      log.Logger
	Isolator Isolator
	Mocks    Bookkeeper
}

// Runner is the execution engine. It is single-threaded and synchronous:
// traversal, hooks and reporter callbacks run sequentially in declaration
// order.
type Runner struct {
	log      log.Logger
	isolator Isolator
	mocks    Bookkeeper
	tracer   trace.Tracer
}

type noopBookkeeper struct{}

func (noopBookkeeper) Reset()                          {}
func (noopBookkeeper) Tally(rep reporter.Reporter) int { return 0 }

// New creates a new Runner.
func New(cfg Config) (*Runner, error) {
	if cfg.Isolator == nil {
		return nil, fmt.Errorf("isolator is required")
	}
	if cfg.Mocks == nil {
		cfg.Mocks = noopBookkeeper{}
	}
	if cfg.Log == nil {
		cfg.Log = log.New()
		cfg.Log.Error("No logger provided, using default")
	}
	return &Runner{
		log:      cfg.Log,
		isolator: cfg.Isolator,
		mocks:    cfg.Mocks,
		tracer:   otel.Tracer("test runner"),
	}, nil
}

// RunSuite runs every test in the tree rooted at root, each in isolation.
// A configured per-test timeout is validated up front; an invalid value is a
// fatal configuration error returned before any suite or test executes.
// Success requires both zero failures and zero exceptions.
func (r *Runner) RunSuite(ctx context.Context, root *suite.TestSuite, rep reporter.Reporter) (*Result, error) {
	if _, _, err := perTestTimeout(); err != nil {
		return nil, err
	}

	start := time.Now()
	rep.SetUp()

	// A spawned isolated-test child short-circuits to its one test instead
	// of re-traversing the whole tree.
	if path, ok := r.isolator.ChildTestPath(); ok {
		return r.runChildTest(ctx, root, path, rep)
	}

	r.log.Debug("Running suite", "suite", root.Name, "tests", root.CountTests())
	if err := r.runEveryTest(ctx, root, rep, nil); err != nil {
		return nil, err
	}

	res := &Result{
		Failures:   rep.Failures(),
		Exceptions: rep.Exceptions(),
		Duration:   time.Since(start),
	}
	res.Success = res.Failures == 0 && res.Exceptions == 0
	return res, nil
}

// RunNamed runs every test called name anywhere in the tree, directly in the
// calling process. Suites whose subtree has no match are skipped entirely,
// hooks included. Success checks failures only; captured exceptions still
// count as failures through the conversion path, but the exception counter is
// deliberately not consulted in this mode.
func (r *Runner) RunNamed(ctx context.Context, root *suite.TestSuite, name string, rep reporter.Reporter) (*Result, error) {
	if _, _, err := perTestTimeout(); err != nil {
		return nil, err
	}

	start := time.Now()
	rep.SetUp()

	r.log.Debug("Running named test", "suite", root.Name, "name", name)
	if err := r.runNamedTest(ctx, root, name, rep); err != nil {
		return nil, err
	}

	res := &Result{
		Failures:   rep.Failures(),
		Exceptions: rep.Exceptions(),
		Duration:   time.Since(start),
	}
	res.Success = res.Failures == 0
	return res, nil
}

// runEveryTest traverses s depth-first. Leaf tests are delegated to the
// isolator; a nested suite is wrapped in the current suite's setup and
// teardown hooks, which bracket the whole subtree, not each leaf within it.
func (r *Runner) runEveryTest(ctx context.Context, s *suite.TestSuite, rep reporter.Reporter, trail []string) error {
	ctx, span := r.tracer.Start(ctx, fmt.Sprintf("suite %s", s.Name))
	defer span.End()

	trail = append(trail, s.Name)
	rep.StartSuite(s.Name, s.CountTests())
	for _, e := range s.Entries() {
		if e.Test != nil {
			if err := r.runTestInIsolation(ctx, s, e.Test, rep, trail); err != nil {
				return err
			}
		} else {
			if s.Setup != nil {
				s.Setup()
			}
			err := r.runEveryTest(ctx, e.Suite, rep, trail)
			if s.Teardown != nil {
				s.Teardown()
			}
			if err != nil {
				return err
			}
		}
	}
	rep.Completion()
	rep.FinishSuite(s.Filename, s.Line)
	return nil
}

// runNamedTest is the named-run counterpart of runEveryTest: matches execute
// in the current process, and a nested suite is entered only when the target
// name exists somewhere in its subtree.
func (r *Runner) runNamedTest(ctx context.Context, s *suite.TestSuite, name string, rep reporter.Reporter) error {
	rep.StartSuite(s.Name, s.CountTests())
	for _, e := range s.Entries() {
		if e.Test != nil {
			if e.Test.Name == name {
				if err := r.runTheTest(ctx, s, e.Test, rep); err != nil {
					return err
				}
			}
		} else if e.Suite.HasTest(name) {
			if s.Setup != nil {
				s.Setup()
			}
			err := r.runNamedTest(ctx, e.Suite, name, rep)
			if s.Teardown != nil {
				s.Teardown()
			}
			if err != nil {
				return err
			}
		}
	}
	rep.Completion()
	rep.FinishSuite(s.Filename, s.Line)
	return nil
}

func (r *Runner) runTestInIsolation(ctx context.Context, s *suite.TestSuite, t *suite.Test, rep reporter.Reporter, trail []string) error {
	timeout, _, err := perTestTimeout()
	if err != nil {
		return err
	}
	req := IsolatedTest{
		Path:     suite.NamePath(append(append([]string{}, trail...), t.Name)...),
		Name:     t.Name,
		Filename: t.Filename,
		Line:     t.Line,
		Timeout:  timeout,
	}
	return r.isolator.RunIsolated(ctx, req, rep, func(ctx context.Context, rep reporter.Reporter) error {
		return r.runTheTest(ctx, s, t, rep)
	})
}

// runChildTest resolves path inside root and runs that single test in the
// current process. Ancestor suite-entry setup hooks along the path are
// replayed first, reconstructing the state an inherited-memory fork child
// would have seen; ancestor teardowns remain the parent's business.
func (r *Runner) runChildTest(ctx context.Context, root *suite.TestSuite, path string, rep reporter.Reporter) (*Result, error) {
	owner, test, ancestors, ok := findTestByPath(root, path)
	if !ok {
		return nil, fmt.Errorf("isolated test %q not found in suite %q", path, root.Name)
	}
	for _, a := range ancestors {
		if a.Setup != nil {
			a.Setup()
		}
	}
	if err := r.runTheTest(ctx, owner, test, rep); err != nil {
		return nil, err
	}
	res := &Result{Failures: rep.Failures(), Exceptions: rep.Exceptions()}
	res.Success = res.Failures == 0 && res.Exceptions == 0
	return res, nil
}

// findTestByPath walks a slash-joined path from root to a leaf test. It
// returns the suite owning the test and the ancestors whose suite-entry setup
// ran before the owner was entered (every ancestor except the owner itself).
func findTestByPath(root *suite.TestSuite, path string) (owner *suite.TestSuite, test *suite.Test, ancestors []*suite.TestSuite, ok bool) {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] != root.Name {
		return nil, nil, nil, false
	}
	current := root
	for _, segment := range segments[1 : len(segments)-1] {
		var next *suite.TestSuite
		for _, e := range current.Entries() {
			if e.Suite != nil && e.Suite.Name == segment {
				next = e.Suite
				break
			}
		}
		if next == nil {
			return nil, nil, nil, false
		}
		ancestors = append(ancestors, current)
		current = next
	}
	testName := segments[len(segments)-1]
	for _, e := range current.Entries() {
		if e.Test != nil && e.Test.Name == testName {
			return current, e.Test, ancestors, true
		}
	}
	return nil, nil, nil, false
}

// runTheTest is the per-test execution sequence, identical for isolated and
// current-process execution: reset leaked state, arm the watchdog, run the
// resolved setup, the body between start/finish events, the resolved
// teardown, then tally outstanding mock expectations.
func (r *Runner) runTheTest(ctx context.Context, s *suite.TestSuite, t *suite.Test, rep reporter.Reporter) error {
	_, span := r.tracer.Start(ctx, fmt.Sprintf("test %s", t.Name))
	defer span.End()

	r.mocks.Reset()
	assertions.ResetSignificantFigures()

	// Re-validated here as well as at the run boundary; both checks apply
	// the same rule.
	timeout, defined, err := perTestTimeout()
	if err != nil {
		return err
	}
	if defined {
		r.isolator.DieIn(timeout)
	}

	if setup := resolveSetup(s, t); setup != nil {
		r.runPhase(phaseSetup, setup, t, rep)
	}

	rep.StartTest(t.Name)
	r.runPhase(phaseTest, t.Run, t, rep)
	rep.Completion()
	rep.FinishTest(t.Filename, t.Line)

	if teardown := resolveTeardown(s, t); teardown != nil {
		r.runPhase(phaseTeardown, teardown, t, rep)
	}

	r.mocks.Tally(rep)
	return nil
}
