package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/acarl005/stripansi"

	"github.com/larch-testing/larch/reporter"
)

const (
	// RunDirectoryPrefix names the per-run directory under the base log dir.
	RunDirectoryPrefix = "testrun-"

	SummaryFilename = "summary.log"
	AllLogsFilename = "all.log"
)

// FileLogger writes per-test output and a run summary to files.
type FileLogger struct {
	baseDir     string
	logDir      string
	failedDir   string
	passedDir   string
	summaryFile string
	allLogsFile string
	runID       string
	mu          sync.Mutex
}

// NewFileLogger creates the run directory structure under baseDir.
func NewFileLogger(baseDir string, runID string) (*FileLogger, error) {
	if runID == "" {
		return nil, fmt.Errorf("runID cannot be empty")
	}
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}

	logDir := filepath.Join(baseDir, RunDirectoryPrefix+runID)
	logger := &FileLogger{
		baseDir:     baseDir,
		logDir:      logDir,
		failedDir:   filepath.Join(logDir, "failed"),
		passedDir:   filepath.Join(logDir, "passed"),
		summaryFile: filepath.Join(logDir, SummaryFilename),
		allLogsFile: filepath.Join(logDir, AllLogsFilename),
		runID:       runID,
	}

	for _, dir := range []string{baseDir, logDir, logger.failedDir, logger.passedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return logger, nil
}

// LogDir returns the directory holding this run's logs.
func (l *FileLogger) LogDir() string {
	return l.logDir
}

// Consume writes the record to its per-test file and appends it to the
// combined log. ANSI color codes from the console reporter are stripped.
func (l *FileLogger) Consume(record reporter.TestRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	dir := l.passedDir
	if record.Status == reporter.StatusFail {
		dir = l.failedDir
	}

	content := formatRecord(record)
	path := filepath.Join(dir, sanitizeFilename(record.Name)+".log")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write test log %s: %w", path, err)
	}

	return l.appendAll(content)
}

func (l *FileLogger) appendAll(content string) error {
	f, err := os.OpenFile(l.allLogsFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open combined log: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}

// Complete writes the run summary once all records have been consumed.
func (l *FileLogger) Complete(records []reporter.TestRecord, duration time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b strings.Builder
	passed, failed := 0, 0
	for _, r := range records {
		if r.Status == reporter.StatusFail {
			failed++
		} else {
			passed++
		}
	}
	fmt.Fprintf(&b, "run: %s\n", l.runID)
	fmt.Fprintf(&b, "tests: %d\npassed: %d\nfailed: %d\n", len(records), passed, failed)
	fmt.Fprintf(&b, "duration: %s\n", duration)
	for _, r := range records {
		fmt.Fprintf(&b, "%s: %s (%s)\n", r.Status, r.Name, r.Duration)
	}

	if err := os.WriteFile(l.summaryFile, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}

func formatRecord(record reporter.TestRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "=== %s (%s:%d)\n", record.Name, record.Filename, record.Line)
	fmt.Fprintf(&b, "status: %s\nduration: %s\n", record.Status, record.Duration)
	for _, msg := range record.Messages {
		b.WriteString(stripansi.Strip(msg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer("/", "_", " ", "_", ":", "_")
	return replacer.Replace(name)
}
