package isolation

import (
	"sync"

	"github.com/larch-testing/larch/reporter"
)

// detachableReporter forwards callbacks to an inner reporter until Detach is
// called; after that every callback is dropped. The InProcess isolator hands
// it to the run closure so that a test it has abandoned can never emit a
// second outcome through the shared reporter.
type detachableReporter struct {
	mu    sync.Mutex
	inner reporter.Reporter
}

func newDetachableReporter(inner reporter.Reporter) *detachableReporter {
	return &detachableReporter{inner: inner}
}

// Detach cuts the proxy off from the inner reporter. Callbacks in flight
// complete first; everything after returns without effect.
func (d *detachableReporter) Detach() {
	d.mu.Lock()
	d.inner = nil
	d.mu.Unlock()
}

func (d *detachableReporter) SetUp() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.SetUp()
	}
}

func (d *detachableReporter) StartSuite(name string, testCount int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.StartSuite(name, testCount)
	}
}

func (d *detachableReporter) FinishSuite(filename string, line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.FinishSuite(filename, line)
	}
}

func (d *detachableReporter) StartTest(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.StartTest(name)
	}
}

func (d *detachableReporter) FinishTest(filename string, line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.FinishTest(filename, line)
	}
}

func (d *detachableReporter) Completion() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.Completion()
	}
}

func (d *detachableReporter) ShowFail(filename string, line int, format string, args ...interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.ShowFail(filename, line, format, args...)
	}
}

func (d *detachableReporter) RecordException() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		d.inner.RecordException()
	}
}

func (d *detachableReporter) Failures() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		return d.inner.Failures()
	}
	return 0
}

func (d *detachableReporter) Exceptions() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inner != nil {
		return d.inner.Exceptions()
	}
	return 0
}
