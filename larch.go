// Package larch wires the execution engine, isolation, reporting and logging
// into a runnable test service.
package larch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/larch-testing/larch/exitcodes"
	"github.com/larch-testing/larch/isolation"
	"github.com/larch-testing/larch/logging"
	"github.com/larch-testing/larch/mocks"
	"github.com/larch-testing/larch/reporter"
	"github.com/larch-testing/larch/runner"
	"github.com/larch-testing/larch/suite"
)

// larch runs the registered suites, once or periodically.
type larch struct {
	ctx     context.Context
	config  *Config
	version string
	result  *runner.Result

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	shutdownCallback func(error) // Callback to signal application shutdown
}

func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*larch, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating larch with config",
		"testName", config.TestName,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce,
		"noIsolation", config.NoIsolation,
		"logDir", config.LogDir)

	return &larch{
		ctx:              ctx,
		config:           config,
		version:          version,
		done:             make(chan struct{}),
		shutdownCallback: shutdownCallback,
	}, nil
}

// Start runs the registered suites, then either exits (run-once mode) or
// keeps re-running them at the configured interval.
func (l *larch) Start(ctx context.Context) error {
	// Escaped panics here are runtime errors, not test failures.
	defer func() {
		if r := recover(); r != nil {
			l.config.Log.Error("Runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	l.ctx = ctx
	l.done = make(chan struct{})
	l.running.Store(true)

	if l.config.RunOnce {
		l.config.Log.Info("Starting larch in run-once mode")
	} else {
		l.config.Log.Info("Starting larch in continuous mode", "interval", l.config.RunInterval)
	}

	err := l.runTests()
	if err != nil {
		l.config.Log.Error("Runtime error running tests", "error", err)
		return cli.Exit(err.Error(), exitcodes.RuntimeErr)
	}

	if l.config.RunOnce {
		l.config.Log.Info("Tests completed, exiting (run-once mode)")

		if l.result != nil && !l.result.Success {
			l.config.Log.Warn("Run-once test run completed with failures, returning exit code 1")
			return NewTestFailureError(fmt.Sprintf("%d failures, %d exceptions",
				l.result.Failures, l.result.Exceptions))
		}

		go func() {
			l.shutdownCallback(nil)
		}()
		return nil
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.config.Log.Debug("Starting periodic test runner goroutine", "interval", l.config.RunInterval)

		for {
			select {
			case <-time.After(l.config.RunInterval):
				if !l.running.Load() {
					l.config.Log.Debug("Service stopped, exiting periodic test runner")
					return
				}

				l.config.Log.Info("Running periodic tests")
				if err := l.runTests(); err != nil {
					l.config.Log.Error("Error running periodic tests", "error", err)
				}

			case <-l.done:
				l.config.Log.Debug("Done signal received, stopping periodic test runner")
				return

			case <-ctx.Done():
				l.config.Log.Debug("Context canceled, stopping periodic test runner")
				l.running.Store(false)
				return
			}
		}
	}()
	l.config.Log.Debug("larch started successfully")
	return nil
}

// runTests runs all registered suites once and processes the results.
func (l *larch) runTests() error {
	roots := suite.Registered()
	if len(roots) == 0 {
		return NewRuntimeError(errors.New("no suites registered"))
	}

	runID := uuid.New().String()
	console := reporter.NewConsole(os.Stdout)

	run, err := l.newRunner()
	if err != nil {
		return NewRuntimeError(err)
	}

	total := &runner.Result{Success: true}
	start := time.Now()
	for _, root := range roots {
		var res *runner.Result
		if l.config.TestName != "" {
			res, err = run.RunNamed(l.ctx, root, l.config.TestName, console)
		} else {
			res, err = run.RunSuite(l.ctx, root, console)
		}
		if err != nil {
			return NewRuntimeError(err)
		}
		console.Summary(root.Name)
		total.Failures += res.Failures
		total.Exceptions += res.Exceptions
		total.Success = total.Success && res.Success
	}
	total.Duration = time.Since(start)
	l.result = total

	if err := l.writeLogs(runID, console.Results(), total.Duration); err != nil {
		l.config.Log.Error("Failed to write test logs", "error", err)
	}

	l.printResultsTable(runID, console.Results())
	RecordResults(runID, console.Results(), total)

	l.config.Log.Info("Test run completed",
		"run_id", runID,
		"failures", total.Failures,
		"exceptions", total.Exceptions,
		"success", total.Success)
	return nil
}

func (l *larch) newRunner() (*runner.Runner, error) {
	var isolator runner.Isolator
	if l.config.NoIsolation {
		isolator = isolation.NewInProcess(l.config.Log)
	} else {
		isolator = isolation.NewSubprocess(l.config.Log)
	}
	return runner.New(runner.Config{
		Log:      l.config.Log,
		Isolator: isolator,
		Mocks:    mocks.NewController(),
	})
}

func (l *larch) writeLogs(runID string, records []reporter.TestRecord, duration time.Duration) error {
	if l.config.LogDir == "" {
		return nil
	}
	fileLogger, err := logging.NewFileLogger(l.config.LogDir, runID)
	if err != nil {
		return err
	}
	for _, record := range records {
		if err := fileLogger.Consume(record); err != nil {
			return err
		}
	}
	return fileLogger.Complete(records, duration)
}

// Stop stops the larch service.
func (l *larch) Stop(ctx context.Context) error {
	l.config.Log.Info("Stopping larch")

	if !l.running.Load() {
		l.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}

	l.running.Store(false)
	close(l.done)

	l.config.Log.Info("larch stopped successfully")
	return nil
}

// Stopped returns true if the larch service is stopped.
func (l *larch) Stopped() bool {
	return !l.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
func (l *larch) WaitForShutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		l.config.Log.Warn("Timed out waiting for goroutines to terminate", "error", ctx.Err())
		return ctx.Err()
	}
}

// RunChild executes the single test addressed by the isolation marker in the
// environment and streams its reporter events to stdout. It is the whole
// lifetime of a spawned child process.
func RunChild(ctx context.Context, logger log.Logger) error {
	iso := isolation.NewSubprocess(logger)
	path, ok := iso.ChildTestPath()
	if !ok {
		return NewRuntimeError(errors.New("not an isolated-test child process"))
	}

	root, err := findRootForPath(path)
	if err != nil {
		return NewRuntimeError(err)
	}

	run, err := runner.New(runner.Config{
		Log:      logger,
		Isolator: iso,
		Mocks:    mocks.NewController(),
	})
	if err != nil {
		return NewRuntimeError(err)
	}

	res, err := run.RunSuite(ctx, root, reporter.NewWire(os.Stdout))
	if err != nil {
		return NewRuntimeError(err)
	}
	if !res.Success {
		return NewTestFailureError(fmt.Sprintf("isolated test %q failed", path))
	}
	return nil
}

// findRootForPath matches the first path segment against the registered root
// suites.
func findRootForPath(path string) (*suite.TestSuite, error) {
	rootName := strings.SplitN(path, "/", 2)[0]
	for _, root := range suite.Registered() {
		if root.Name == rootName {
			return root, nil
		}
	}
	return nil, fmt.Errorf("isolated test %q does not match any registered suite", path)
}
