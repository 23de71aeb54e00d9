// Package isolation provides the fault-containment layer the execution
// engine delegates leaf tests to. The Subprocess isolator re-executes the
// current binary per test and relays the child's reporter events back to the
// parent; the InProcess isolator contains panics and hangs behind a goroutine
// barrier for environments where re-exec is unavailable. Either way, exactly
// one outcome per test reaches the reporter.
package isolation

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/larch-testing/larch/exitcodes"
	"github.com/larch-testing/larch/reporter"
	"github.com/larch-testing/larch/runner"
)

// ChildTestEnvVar marks a spawned isolated-test child and carries the path of
// the one test it must run.
const ChildTestEnvVar = "LARCH_ISOLATED_TEST"

// watchdogGrace is added to the parent-side deadline so the child's own
// watchdog fires first.
const watchdogGrace = 200 * time.Millisecond

// IsChild reports whether the current process is an isolated-test child.
func IsChild() bool {
	_, ok := os.LookupEnv(ChildTestEnvVar)
	return ok
}

// Subprocess runs each test by re-executing the current binary with
// ChildTestEnvVar set. The child short-circuits its traversal to the one
// addressed test, streams wire-reporter events on stdout and exits with a
// code derived from its counters; the parent replays the stream onto the real
// reporter.
type Subprocess struct {
	log        log.Logger
	executable string
	args       []string
	output     *os.File // passthrough destination for raw child output
}

// NewSubprocess creates a subprocess isolator that re-runs the current
// command line.
func NewSubprocess(logger log.Logger) *Subprocess {
	if logger == nil {
		logger = log.New()
	}
	return &Subprocess{
		log:        logger,
		executable: os.Args[0],
		args:       os.Args[1:],
		output:     os.Stdout,
	}
}

// ChildTestPath implements runner.Isolator.
func (s *Subprocess) ChildTestPath() (string, bool) {
	return os.LookupEnv(ChildTestEnvVar)
}

// DieIn arms the child-process watchdog. Outside a child it is a no-op: the
// parent enforces its own deadline per spawned test instead.
func (s *Subprocess) DieIn(d time.Duration) {
	if !IsChild() {
		return
	}
	time.AfterFunc(d, func() {
		os.Exit(exitcodes.WatchdogKill)
	})
}

// RunIsolated implements runner.Isolator. The run closure is ignored; the
// test executes in the spawned child, which re-enters the engine itself.
func (s *Subprocess) RunIsolated(ctx context.Context, req runner.IsolatedTest, rep reporter.Reporter, run func(ctx context.Context, rep reporter.Reporter) error) error {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout+watchdogGrace)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, s.executable, s.args...)
	cmd.Env = append(os.Environ(), ChildTestEnvVar+"="+req.Path)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	s.log.Debug("Spawning isolated test", "path", req.Path, "timeout", req.Timeout)
	runErr := cmd.Run()

	started, finished, replayErr := reporter.Replay(&stdout, rep, s.output)
	if replayErr != nil {
		s.log.Error("Failed to replay child event stream", "path", req.Path, "err", replayErr)
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else if runErr == nil {
		exitCode = 0
	}

	timedOut := ctx.Err() == context.DeadlineExceeded || exitCode == exitcodes.WatchdogKill
	crashed := !timedOut && runErr != nil && finished == 0 &&
		exitCode != exitcodes.Success && exitCode != exitcodes.TestFailure

	switch {
	case timedOut:
		s.completeInterrupted(req, rep, started, finished,
			"test %q timed out after %v", req.Name, req.Timeout)
	case crashed:
		// The child died without delivering an outcome: report the crash as
		// both a failure and an exception, at the test's source location.
		s.log.Warn("Isolated test crashed", "path", req.Path, "exit", exitCode, "stderr", stderr.String())
		s.completeInterrupted(req, rep, started, finished,
			"test %q crashed: %s", req.Name, describeExit(runErr, stderr.Bytes()))
		rep.RecordException()
	}
	return nil
}

// completeInterrupted delivers the single outcome for a child that never
// finished its test, synthesizing the missing lifecycle events.
func (s *Subprocess) completeInterrupted(req runner.IsolatedTest, rep reporter.Reporter, started, finished int, format string, args ...interface{}) {
	if finished > 0 {
		// The test itself completed; whatever killed the child afterwards is
		// not this test's outcome.
		return
	}
	if started == 0 {
		rep.StartTest(req.Name)
	}
	rep.ShowFail(req.Filename, req.Line, format, args...)
	rep.Completion()
	rep.FinishTest(req.Filename, req.Line)
}

func describeExit(err error, stderr []byte) string {
	trimmed := bytes.TrimSpace(stderr)
	if len(trimmed) > 0 {
		return string(trimmed)
	}
	if err != nil {
		return err.Error()
	}
	return "no output"
}
