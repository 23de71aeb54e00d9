package reporter

import (
	"fmt"
	"io"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Status represents the outcome of a single test.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

// TestRecord captures the console reporter's view of one executed test, used
// by the summary table after the run.
type TestRecord struct {
	Name     string
	Filename string
	Line     int
	Status   Status
	Duration time.Duration
	Messages []string
}

// Console is a streaming text reporter. Failures are printed as they happen;
// per-test records accumulate for the end-of-run summary. An optional mirror
// writer receives the same output with ANSI color stripped, suitable for log
// files.
type Console struct {
	Base

	out    io.Writer
	mirror io.Writer

	records []TestRecord
	current *TestRecord
	started time.Time
}

// NewConsole creates a console reporter writing to out.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Mirror sets a secondary writer that receives color-stripped output.
func (c *Console) Mirror(w io.Writer) *Console {
	c.mirror = w
	return c
}

func (c *Console) printf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	fmt.Fprint(c.out, line)
	if c.mirror != nil {
		fmt.Fprint(c.mirror, stripansi.Strip(line))
	}
}

func (c *Console) StartSuite(name string, testCount int) {
	c.printf("Running %q (%d tests)...\n", name, testCount)
}

func (c *Console) StartTest(name string) {
	c.current = &TestRecord{Name: name, Status: StatusPass}
	c.started = time.Now()
}

func (c *Console) FinishTest(filename string, line int) {
	if c.current == nil {
		return
	}
	c.current.Filename = filename
	c.current.Line = line
	c.current.Duration = time.Since(c.started)
	c.records = append(c.records, *c.current)
	c.current = nil
}

func (c *Console) ShowFail(filename string, line int, format string, args ...interface{}) {
	c.Base.ShowFail(filename, line, format, args...)
	if c.current != nil {
		c.current.Status = StatusFail
		c.current.Messages = append(c.current.Messages, fmt.Sprintf(format, args...))
	}
	c.printf("%s:%d: %s %s\n",
		filename, line, text.FgRed.Sprint("Failure:"), fmt.Sprintf(format, args...))
}

// Results returns the per-test records accumulated so far.
func (c *Console) Results() []TestRecord {
	return c.records
}

// Summary prints the run totals in the style of the streaming output.
func (c *Console) Summary(suiteName string) {
	passes := 0
	for _, r := range c.records {
		if r.Status == StatusPass {
			passes++
		}
	}
	verdict := text.FgGreen.Sprint("Completed")
	if c.Failures() > 0 || c.Exceptions() > 0 {
		verdict = text.FgRed.Sprint("Completed")
	}
	c.printf("%s %q: %d passes, %d failures, %d exceptions.\n",
		verdict, suiteName, passes, c.Failures(), c.Exceptions())
}
