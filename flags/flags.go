package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "LARCH"

// prefixEnvVar returns the environment variable names bound to a flag.
func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	TestName = &cli.StringFlag{
		Name:    "test",
		Value:   "",
		EnvVars: prefixEnvVar("TEST"),
		Usage:   "Run only the named test (searches the whole suite tree)",
	}
	RunConfig = &cli.StringFlag{
		Name:    "run-config",
		Value:   "",
		EnvVars: prefixEnvVar("RUN_CONFIG"),
		Usage:   "Path to a run config file (eg. 'larch.yaml')",
	}
	LogDir = &cli.StringFlag{
		Name:    "logdir",
		Value:   "logs",
		EnvVars: prefixEnvVar("LOGDIR"),
		Usage:   "Directory to write per-run test logs into",
	}
	NoIsolation = &cli.BoolFlag{
		Name:    "no-isolation",
		Value:   false,
		EnvVars: prefixEnvVar("NO_ISOLATION"),
		Usage:   "Run tests in-process instead of one subprocess per test",
	}
	RunInterval = &cli.DurationFlag{
		Name:    "run-interval",
		Value:   0,
		EnvVars: prefixEnvVar("RUN_INTERVAL"),
		Usage:   "Interval between test runs (e.g. '1h', '30m'). Set to 0 or omit for run-once mode.",
	}
	Metrics = &cli.BoolFlag{
		Name:    "metrics",
		Value:   false,
		EnvVars: prefixEnvVar("METRICS"),
		Usage:   "Serve Prometheus metrics while running periodically",
	}
	MetricsAddr = &cli.StringFlag{
		Name:    "metrics-addr",
		Value:   "127.0.0.1:7300",
		EnvVars: prefixEnvVar("METRICS_ADDR"),
		Usage:   "Listen address for the metrics server",
	}
)

var requiredFlags = []cli.Flag{}

var optionalFlags = []cli.Flag{
	TestName,
	RunConfig,
	LogDir,
	NoIsolation,
	RunInterval,
	Metrics,
	MetricsAddr,
}

var Flags []cli.Flag

func init() {
	Flags = append(requiredFlags, optionalFlags...)
}

func CheckRequired(ctx *cli.Context) error {
	for _, f := range requiredFlags {
		if !ctx.IsSet(f.Names()[0]) {
			return fmt.Errorf("flag %s is required", f.Names()[0])
		}
	}
	return nil
}
