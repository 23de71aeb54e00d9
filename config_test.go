package larch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/larch-testing/larch/flags"
	"github.com/larch-testing/larch/runner"
)

func newCLIContext(t *testing.T, args ...string) *cli.Context {
	var captured *cli.Context
	app := cli.NewApp()
	app.Flags = flags.Flags
	app.Action = func(c *cli.Context) error {
		captured = c
		return nil
	}
	require.NoError(t, app.Run(append([]string{"larch"}, args...)))
	require.NotNil(t, captured)
	return captured
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := NewConfig(newCLIContext(t), log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	assert.True(t, cfg.RunOnce)
	assert.False(t, cfg.NoIsolation)
	assert.Empty(t, cfg.TestName)
	assert.True(t, filepath.IsAbs(cfg.LogDir))
	assert.Equal(t, "127.0.0.1:7300", cfg.MetricsAddr)
}

func TestNewConfigReadsFlags(t *testing.T) {
	cfg, err := NewConfig(
		newCLIContext(t, "--test", "adds_numbers", "--no-isolation", "--run-interval", "30m"),
		log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	assert.Equal(t, "adds_numbers", cfg.TestName)
	assert.True(t, cfg.NoIsolation)
	assert.False(t, cfg.RunOnce)
}

func TestNewConfigAppliesRunConfig(t *testing.T) {
	t.Setenv(runner.PerTestTimeoutEnvVar, "")
	require.NoError(t, os.Unsetenv(runner.PerTestTimeoutEnvVar))

	override := t.TempDir()
	path := filepath.Join(t.TempDir(), "larch.yaml")
	content := "per_test_timeout_seconds: 5\nlogdir: " + override + "\nno_isolation: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewConfig(
		newCLIContext(t, "--run-config", path),
		log.NewLogger(log.DiscardHandler()))
	require.NoError(t, err)

	assert.Equal(t, override, cfg.LogDir)
	assert.True(t, cfg.NoIsolation)
	assert.Equal(t, "5", os.Getenv(runner.PerTestTimeoutEnvVar))
}

func TestLoadRunConfigRejectsBadInput(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "larch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("per_test_timeout_seconds: -3\n"), 0644))
	_, err = LoadRunConfig(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))
	_, err = LoadRunConfig(path)
	assert.Error(t, err)
}
