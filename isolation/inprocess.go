package isolation

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/larch-testing/larch/reporter"
	"github.com/larch-testing/larch/runner"
)

// InProcess contains each test behind a goroutine barrier instead of a
// process boundary. Panics that escape the engine's own phase capture are
// converted into a crash outcome; a configured timeout abandons the test.
// Containment of hangs is best-effort: the runaway body keeps running on its
// goroutine until the process exits, which is the trade-off for not spawning
// a process per test.
type InProcess struct {
	log log.Logger
}

// NewInProcess creates an in-process isolator.
func NewInProcess(logger log.Logger) *InProcess {
	if logger == nil {
		logger = log.New()
	}
	return &InProcess{log: logger}
}

// ChildTestPath implements runner.Isolator; an in-process run never spawns
// children.
func (p *InProcess) ChildTestPath() (string, bool) {
	return "", false
}

// DieIn implements runner.Isolator. There is no child process to terminate;
// the timeout is enforced by RunIsolated's timer instead.
func (p *InProcess) DieIn(d time.Duration) {}

// RunIsolated implements runner.Isolator. The run closure executes against a
// detachable reporter proxy: when the test is abandoned, the proxy is cut off
// before the synthesized outcome is delivered, so a runaway body that later
// resumes cannot reach the real reporter.
func (p *InProcess) RunIsolated(ctx context.Context, req runner.IsolatedTest, rep reporter.Reporter, run func(ctx context.Context, rep reporter.Reporter) error) error {
	done := make(chan error, 1)
	crashed := make(chan interface{}, 1)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	proxy := newDetachableReporter(rep)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				crashed <- rec
			}
		}()
		done <- run(runCtx, proxy)
	}()

	var timeout <-chan time.Time
	if req.Timeout > 0 {
		timer := time.NewTimer(req.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-done:
		return err
	case rec := <-crashed:
		p.log.Warn("Test escaped the phase barrier", "test", req.Name, "panic", rec)
		rep.ShowFail(req.Filename, req.Line, "test %q crashed: %v", req.Name, rec)
		rep.RecordException()
		rep.Completion()
		rep.FinishTest(req.Filename, req.Line)
		return nil
	case <-timeout:
		// The abandoned body has usually passed StartTest already, so only
		// the closing events are synthesized here. The proxy is detached
		// first: from this point the timed-out test owns no further events.
		cancel()
		proxy.Detach()
		p.log.Warn("Test timed out", "test", req.Name, "timeout", req.Timeout)
		rep.ShowFail(req.Filename, req.Line, "test %q timed out after %v", req.Name, req.Timeout)
		rep.Completion()
		rep.FinishTest(req.Filename, req.Line)
		return nil
	case <-ctx.Done():
		cancel()
		proxy.Detach()
		return fmt.Errorf("run canceled while waiting for test %q: %w", req.Name, ctx.Err())
	}
}
