package logging

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larch-testing/larch/reporter"
)

func TestNewFileLoggerValidation(t *testing.T) {
	_, err := NewFileLogger("", "run-1")
	assert.Error(t, err)

	_, err = NewFileLogger(t.TempDir(), "")
	assert.Error(t, err)
}

func TestFileLoggerCreatesRunDirectory(t *testing.T) {
	base := t.TempDir()
	logger, err := NewFileLogger(base, "run-42")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(base, "testrun-run-42"), logger.LogDir())
	assert.DirExists(t, filepath.Join(logger.LogDir(), "failed"))
	assert.DirExists(t, filepath.Join(logger.LogDir(), "passed"))
}

func TestFileLoggerConsumeRoutesByStatus(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run-1")
	require.NoError(t, err)

	pass := reporter.TestRecord{
		Name:     "adds_numbers",
		Filename: "math_tests.go",
		Line:     10,
		Status:   reporter.StatusPass,
		Duration: time.Millisecond,
	}
	fail := reporter.TestRecord{
		Name:     "divides_by_zero",
		Filename: "math_tests.go",
		Line:     20,
		Status:   reporter.StatusFail,
		Messages: []string{"math_tests.go:21: Failure: \x1b[31mexpected 1\x1b[0m"},
		Duration: time.Millisecond,
	}

	require.NoError(t, logger.Consume(pass))
	require.NoError(t, logger.Consume(fail))

	assert.FileExists(t, filepath.Join(logger.LogDir(), "passed", "adds_numbers.log"))

	failedLog := filepath.Join(logger.LogDir(), "failed", "divides_by_zero.log")
	require.FileExists(t, failedLog)

	data, err := os.ReadFile(failedLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Failure: expected 1")
	assert.NotContains(t, string(data), "\x1b[31m")
}

func TestFileLoggerCompleteWritesSummary(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "run-9")
	require.NoError(t, err)

	records := []reporter.TestRecord{
		{Name: "one", Status: reporter.StatusPass},
		{Name: "two", Status: reporter.StatusFail},
	}
	require.NoError(t, logger.Complete(records, 3*time.Second))

	data, err := os.ReadFile(filepath.Join(logger.LogDir(), "summary.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "run: run-9")
	assert.Contains(t, string(data), "passed: 1")
	assert.Contains(t, string(data), "failed: 1")
}
