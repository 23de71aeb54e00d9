package reporter

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Wire event action constants. One JSON event per line; anything on the
// stream that does not parse as an event is test output and is passed through
// untouched.
const (
	ActionStartSuite  = "start_suite"
	ActionFinishSuite = "finish_suite"
	ActionStartTest   = "start_test"
	ActionFinishTest  = "finish_test"
	ActionCompletion  = "completion"
	ActionFail        = "fail"
	ActionException   = "exception"
)

// Event is a single reporter callback encoded for the wire.
type Event struct {
	Action    string `json:"action"`
	Name      string `json:"name,omitempty"`
	Filename  string `json:"filename,omitempty"`
	Line      int    `json:"line,omitempty"`
	Message   string `json:"message,omitempty"`
	TestCount int    `json:"test_count,omitempty"`
}

// Wire serializes reporter callbacks as JSON lines. An isolated test child
// runs with a Wire reporter on its stdout; the parent replays the stream onto
// the real reporter so callback order is preserved across the process
// boundary.
type Wire struct {
	Base

	enc *json.Encoder
}

// NewWire creates a wire reporter writing JSON events to w.
func NewWire(w io.Writer) *Wire {
	return &Wire{enc: json.NewEncoder(w)}
}

func (w *Wire) emit(e Event) {
	// An unwritable pipe means the parent is gone; nothing useful to do.
	_ = w.enc.Encode(e)
}

func (w *Wire) StartSuite(name string, testCount int) {
	w.emit(Event{Action: ActionStartSuite, Name: name, TestCount: testCount})
}

func (w *Wire) FinishSuite(filename string, line int) {
	w.emit(Event{Action: ActionFinishSuite, Filename: filename, Line: line})
}

func (w *Wire) StartTest(name string) {
	w.emit(Event{Action: ActionStartTest, Name: name})
}

func (w *Wire) FinishTest(filename string, line int) {
	w.emit(Event{Action: ActionFinishTest, Filename: filename, Line: line})
}

func (w *Wire) Completion() {
	w.emit(Event{Action: ActionCompletion})
}

func (w *Wire) ShowFail(filename string, line int, format string, args ...interface{}) {
	w.Base.ShowFail(filename, line, format, args...)
	w.emit(Event{
		Action:   ActionFail,
		Filename: filename,
		Line:     line,
		Message:  fmt.Sprintf(format, args...),
	})
}

func (w *Wire) RecordException() {
	w.Base.RecordException()
	w.emit(Event{Action: ActionException})
}

// Replay reads a wire event stream and re-drives rep with each event in
// order. Lines that do not parse as events (raw test output) are copied to
// passthrough. The start_test/finish_test counts tell callers whether the
// child completed its test or died partway through.
func Replay(r io.Reader, rep Reporter, passthrough io.Writer) (started, finished int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Event
		if unmarshalErr := json.Unmarshal(line, &e); unmarshalErr != nil || e.Action == "" {
			if passthrough != nil {
				fmt.Fprintln(passthrough, string(line))
			}
			continue
		}
		switch e.Action {
		case ActionStartSuite:
			rep.StartSuite(e.Name, e.TestCount)
		case ActionFinishSuite:
			rep.FinishSuite(e.Filename, e.Line)
		case ActionStartTest:
			started++
			rep.StartTest(e.Name)
		case ActionFinishTest:
			finished++
			rep.FinishTest(e.Filename, e.Line)
		case ActionCompletion:
			rep.Completion()
		case ActionFail:
			rep.ShowFail(e.Filename, e.Line, "%s", e.Message)
		case ActionException:
			rep.RecordException()
		}
	}
	return started, finished, scanner.Err()
}
