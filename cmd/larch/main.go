package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	larch "github.com/larch-testing/larch"
	"github.com/larch-testing/larch/exitcodes"
	"github.com/larch-testing/larch/flags"
	"github.com/larch-testing/larch/isolation"
	"github.com/larch-testing/larch/service"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

const healthzAddr = "127.0.0.1:8080"

func main() {
	// Spawned isolated-test children bypass the CLI entirely: stdout belongs
	// to the wire protocol and the environment already says what to run.
	if isolation.IsChild() {
		runChild()
		return
	}

	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "larch"
	app.Usage = "Native test runner service"
	app.Description = "larch runs registered test suites, each test in its own process"
	app.Flags = flags.Flags
	app.Action = run
	app.ExitErrHandler = func(c *cli.Context, err error) {
		var exitErr cli.ExitCoder
		if errors.As(err, &exitErr) {
			cli.HandleExitCoder(exitErr)
		} else if err != nil {
			if larch.IsRuntimeError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.RuntimeErr))
			} else if larch.IsTestFailureError(err) {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			} else {
				cli.HandleExitCoder(cli.Exit(err.Error(), exitcodes.TestFailure))
			}
		}
	}

	// Start telemetry
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer otelShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func run(ctx *cli.Context) error {
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelInfo, true))
	log.SetDefault(logger)

	cfg, err := larch.NewConfig(ctx, logger)
	if err != nil {
		return larch.NewRuntimeError(fmt.Errorf("failed to create config: %w", err))
	}

	runCtx, cancel := context.WithCancelCause(ctx.Context)
	defer cancel(nil)

	if cfg.Metrics {
		svc := service.New()
		svc.Start(runCtx, healthzAddr, cfg.MetricsAddr)
		defer svc.Shutdown()
	}

	app, err := larch.New(runCtx, cfg, Version, cancel)
	if err != nil {
		return larch.NewRuntimeError(fmt.Errorf("failed to create larch: %w", err))
	}

	if err := app.Start(runCtx); err != nil {
		return err
	}

	// Run-once mode triggers the cancel cause itself; continuous mode waits
	// for a signal.
	<-runCtx.Done()
	if err := app.Stop(context.Background()); err != nil {
		logger.Error("Failed to stop cleanly", "error", err)
	}
	if cause := context.Cause(runCtx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}

// runChild executes one isolated test and exits with the code the parent's
// exit analysis expects.
func runChild() {
	logger := log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, log.LevelError, false))
	err := larch.RunChild(context.Background(), logger)
	switch {
	case err == nil:
		os.Exit(exitcodes.Success)
	case larch.IsTestFailureError(err):
		os.Exit(exitcodes.TestFailure)
	default:
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitcodes.RuntimeErr)
	}
}
