package larch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/larch-testing/larch/flags"
	"github.com/larch-testing/larch/runner"
)

// Config holds the application configuration
type Config struct {
	TestName    string        // If set, run only the named test
	RunInterval time.Duration // Interval between test runs
	RunOnce     bool          // Indicates if the service should exit after one test run
	NoIsolation bool          // Run tests in-process instead of one subprocess each
	LogDir      string        // Directory to store test logs
	Metrics     bool          // Serve Prometheus metrics while running periodically
	MetricsAddr string        // Listen address for the metrics server
	Log         log.Logger
}

// RunConfig is the optional YAML file overriding run settings.
type RunConfig struct {
	// PerTestTimeoutSeconds arms the watchdog for each test, in whole
	// seconds. Zero means no timeout.
	PerTestTimeoutSeconds int    `yaml:"per_test_timeout_seconds"`
	LogDir                string `yaml:"logdir"`
	NoIsolation           bool   `yaml:"no_isolation"`
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	logDir := ctx.String(flags.LogDir.Name)
	if logDir == "" {
		logDir = "logs"
	}
	noIsolation := ctx.Bool(flags.NoIsolation.Name)

	if path := ctx.String(flags.RunConfig.Name); path != "" {
		runCfg, err := LoadRunConfig(path)
		if err != nil {
			return nil, err
		}
		if runCfg.LogDir != "" {
			logDir = runCfg.LogDir
		}
		if runCfg.NoIsolation {
			noIsolation = true
		}
		if err := applyPerTestTimeout(runCfg); err != nil {
			return nil, err
		}
	}

	logDir, err := filepath.Abs(logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for log directory '%s': %w", logDir, err)
	}

	return &Config{
		TestName:    ctx.String(flags.TestName.Name),
		RunInterval: runInterval,
		RunOnce:     runOnce,
		NoIsolation: noIsolation,
		LogDir:      logDir,
		Metrics:     ctx.Bool(flags.Metrics.Name),
		MetricsAddr: ctx.String(flags.MetricsAddr.Name),
		Log:         log,
	}, nil
}

// LoadRunConfig parses the YAML run config at path.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read run config '%s': %w", path, err)
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse run config '%s': %w", path, err)
	}
	if cfg.PerTestTimeoutSeconds < 0 {
		return nil, fmt.Errorf("per_test_timeout_seconds must not be negative, got %d", cfg.PerTestTimeoutSeconds)
	}
	return &cfg, nil
}

// applyPerTestTimeout publishes the configured timeout through the
// environment so that isolated child processes inherit it.
func applyPerTestTimeout(cfg *RunConfig) error {
	if cfg.PerTestTimeoutSeconds == 0 {
		return nil
	}
	value := fmt.Sprintf("%d", cfg.PerTestTimeoutSeconds)
	if err := os.Setenv(runner.PerTestTimeoutEnvVar, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", runner.PerTestTimeoutEnvVar, err)
	}
	return nil
}
