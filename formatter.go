package larch

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/larch-testing/larch/reporter"
)

// printResultsTable prints the per-test outcomes of a run to the console.
func (l *larch) printResultsTable(runID string, records []reporter.TestRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle(fmt.Sprintf("Test Results (%s)", formatDuration(l.result.Duration)))

	t.AppendHeader(table.Row{
		"Test", "Location", "Duration", "Status", "Message",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Test", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Message", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	passed, failed := 0, 0
	for _, record := range records {
		if record.Status == reporter.StatusFail {
			failed++
		} else {
			passed++
		}
		t.AppendRow(table.Row{
			record.Name,
			fmt.Sprintf("%s:%d", record.Filename, record.Line),
			formatDuration(record.Duration),
			getResultString(record.Status),
			firstMessage(record),
		})
	}
	t.AppendSeparator()

	if l.result.Success {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(l.result.Duration),
		fmt.Sprintf("%d passed, %d failed", passed, failed),
		fmt.Sprintf("%d exceptions", l.result.Exceptions),
	})

	t.Render()
	l.config.Log.Info("Printed results", "run_id", runID, "tests", len(records))
}

// firstMessage returns the first failure message of a record, trimmed to its
// first line.
func firstMessage(record reporter.TestRecord) string {
	if len(record.Messages) == 0 {
		return ""
	}
	msg := record.Messages[0]
	if idx := strings.Index(msg, "\n"); idx != -1 {
		msg = msg[:idx]
	}
	return msg
}

// getResultString returns a colored string representing the test result
func getResultString(status reporter.Status) string {
	if status == reporter.StatusPass {
		return "✓ pass"
	}
	return "✗ fail"
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
