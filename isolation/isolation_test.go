package isolation

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larch-testing/larch/reporter"
	"github.com/larch-testing/larch/runner"
)

func TestIsChildFollowsEnvMarker(t *testing.T) {
	iso := NewSubprocess(nil)

	_, isChild := iso.ChildTestPath()
	assert.False(t, isChild)
	assert.False(t, IsChild())

	t.Setenv(ChildTestEnvVar, "root/suite/test")
	path, isChild := iso.ChildTestPath()
	assert.True(t, isChild)
	assert.True(t, IsChild())
	assert.Equal(t, "root/suite/test", path)
}

func TestDieInOutsideAChildIsANoop(t *testing.T) {
	iso := NewSubprocess(nil)
	// Must return immediately and must not schedule process termination.
	iso.DieIn(time.Millisecond)
	time.Sleep(10 * time.Millisecond)
}

func TestCompleteInterruptedSynthesizesOneOutcome(t *testing.T) {
	iso := NewSubprocess(nil)
	req := runner.IsolatedTest{Name: "hung", Filename: "hung_test.go", Line: 3}

	var out bytes.Buffer
	rep := reporter.NewConsole(&out)
	rep.SetUp()

	iso.completeInterrupted(req, rep, 0, 0, "test %q timed out after %v", "hung", 2*time.Second)

	require.Len(t, rep.Results(), 1)
	assert.Equal(t, reporter.StatusFail, rep.Results()[0].Status)
	assert.Equal(t, 1, rep.Failures())
	assert.Contains(t, out.String(), `test "hung" timed out after 2s`)
}

func TestCompleteInterruptedTrustsAFinishedTest(t *testing.T) {
	iso := NewSubprocess(nil)
	req := runner.IsolatedTest{Name: "done", Filename: "done_test.go", Line: 4}

	rep := reporter.NewConsole(bytes.NewBuffer(nil))
	rep.SetUp()

	// finished > 0: the child delivered its outcome before dying; nothing
	// more may be attributed to this test.
	iso.completeInterrupted(req, rep, 1, 1, "test %q crashed", "done")
	assert.Zero(t, rep.Failures())
	assert.Empty(t, rep.Results())
}

func TestDescribeExitPrefersStderr(t *testing.T) {
	assert.Equal(t, "segfault details", describeExit(errors.New("exit status 2"), []byte("segfault details\n")))
	assert.Equal(t, "exit status 2", describeExit(errors.New("exit status 2"), nil))
	assert.Equal(t, "no output", describeExit(nil, []byte("  ")))
}

func TestInProcessRunsTheClosureSynchronously(t *testing.T) {
	iso := NewInProcess(nil)
	rep := reporter.NewConsole(bytes.NewBuffer(nil))
	rep.SetUp()

	ran := false
	err := iso.RunIsolated(context.Background(), runner.IsolatedTest{Name: "ok"}, rep, func(context.Context, reporter.Reporter) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Zero(t, rep.Failures())
}

func TestInProcessPropagatesRuntimeErrors(t *testing.T) {
	iso := NewInProcess(nil)
	rep := reporter.NewConsole(bytes.NewBuffer(nil))
	rep.SetUp()

	wantErr := errors.New("bad configuration")
	err := iso.RunIsolated(context.Background(), runner.IsolatedTest{Name: "cfg"}, rep, func(context.Context, reporter.Reporter) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestInProcessContainsEscapedPanics(t *testing.T) {
	iso := NewInProcess(nil)
	var out bytes.Buffer
	rep := reporter.NewConsole(&out)
	rep.SetUp()

	err := iso.RunIsolated(context.Background(),
		runner.IsolatedTest{Name: "crasher", Filename: "crash_test.go", Line: 9},
		rep, func(context.Context, reporter.Reporter) error {
			panic("escaped the phase barrier")
		})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failures())
	assert.Equal(t, 1, rep.Exceptions())
	assert.Contains(t, out.String(), "escaped the phase barrier")
}

func TestInProcessEnforcesTheTimeout(t *testing.T) {
	iso := NewInProcess(nil)
	var out bytes.Buffer
	rep := reporter.NewConsole(&out)
	rep.SetUp()

	start := time.Now()
	err := iso.RunIsolated(context.Background(),
		runner.IsolatedTest{Name: "sleeper", Filename: "sleep_test.go", Line: 1, Timeout: 50 * time.Millisecond},
		rep, func(ctx context.Context, _ reporter.Reporter) error {
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
			}
			return nil
		})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 1, rep.Failures())
	assert.Contains(t, out.String(), "timed out after 50ms")
}

func TestInProcessDiscardsEventsFromAbandonedTests(t *testing.T) {
	iso := NewInProcess(nil)
	var out bytes.Buffer
	rep := reporter.NewConsole(&out)
	rep.SetUp()

	release := make(chan struct{})
	resumed := make(chan struct{})
	err := iso.RunIsolated(context.Background(),
		runner.IsolatedTest{Name: "straggler", Filename: "straggler_test.go", Line: 2, Timeout: 50 * time.Millisecond},
		rep, func(_ context.Context, late reporter.Reporter) error {
			late.StartTest("straggler")
			<-release
			// The isolator has long since delivered the timeout outcome;
			// none of this may reach the real reporter.
			late.ShowFail("straggler_test.go", 3, "late failure")
			late.RecordException()
			late.Completion()
			late.FinishTest("straggler_test.go", 3)
			close(resumed)
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, 1, rep.Failures())

	close(release)
	<-resumed

	assert.Equal(t, 1, rep.Failures())
	assert.Zero(t, rep.Exceptions())
	require.Len(t, rep.Results(), 1)
	assert.Equal(t, "straggler", rep.Results()[0].Name)
	assert.Contains(t, rep.Results()[0].Messages[0], "timed out after 50ms")
	assert.NotContains(t, out.String(), "late failure")
}

func TestDetachableReporterDropsCallbacksAfterDetach(t *testing.T) {
	rep := reporter.NewConsole(bytes.NewBuffer(nil))
	rep.SetUp()

	proxy := newDetachableReporter(rep)
	proxy.StartTest("guarded")
	proxy.ShowFail("g_test.go", 1, "before detach")
	assert.Equal(t, 1, proxy.Failures())

	proxy.Detach()
	proxy.ShowFail("g_test.go", 2, "after detach")
	proxy.RecordException()
	proxy.FinishTest("g_test.go", 2)

	assert.Equal(t, 1, rep.Failures())
	assert.Zero(t, rep.Exceptions())
	assert.Zero(t, proxy.Failures())
	assert.Empty(t, rep.Results())
}
