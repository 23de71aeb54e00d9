package larch

import (
	"github.com/larch-testing/larch/metrics"
	"github.com/larch-testing/larch/reporter"
	"github.com/larch-testing/larch/runner"
)

// RecordResults publishes the per-test and aggregate outcomes of a run as
// Prometheus metrics.
func RecordResults(runID string, records []reporter.TestRecord, result *runner.Result) {
	for _, record := range records {
		metrics.RecordTest(runID, suiteLabel(record), record.Name, record.Status)
	}
	metrics.RecordRun(runID, result.Success, result.Failures, result.Exceptions, result.Duration)
}

// suiteLabel derives the suite label for a test record. Records carry the
// defining file, which groups tests the same way suites do.
func suiteLabel(record reporter.TestRecord) string {
	if record.Filename != "" {
		return record.Filename
	}
	return "unknown"
}
