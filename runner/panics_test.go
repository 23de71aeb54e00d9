package runner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larch-testing/larch/suite"
)

type stringerPanic struct{}

func (stringerPanic) String() string { return "stringer detail" }

func TestPanicDetailShapes(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  string
	}{
		{name: "error value", value: errors.New("broke"), want: "broke"},
		{name: "wrapped error", value: fmt.Errorf("outer: %w", errors.New("inner")), want: "outer: inner"},
		{name: "plain string", value: "just text", want: "just text"},
		{name: "stringer", value: stringerPanic{}, want: "stringer detail"},
		{name: "arbitrary value", value: 42, want: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, panicDetail(tt.value))
		})
	}
}

func TestCapturedPanicMessageNamesThePhase(t *testing.T) {
	tests := []struct {
		name  string
		build func() (*suite.TestSuite, string)
	}{
		{
			name: "panic during setup",
			build: func() (*suite.TestSuite, string) {
				s := suite.New("s")
				s.AddTest(suite.NewTest("t", func() {}).
					InContext(&suite.TestContext{Setup: func() { panic("broken fixture") }}))
				return s, "an exception was thrown during setup: [broken fixture]"
			},
		},
		{
			name: "panic during test",
			build: func() (*suite.TestSuite, string) {
				s := suite.New("s")
				s.AddTest(suite.NewTest("t", func() { panic(errors.New("body died")) }))
				return s, "an exception was thrown during test: [body died]"
			},
		},
		{
			name: "panic during teardown",
			build: func() (*suite.TestSuite, string) {
				s := suite.New("s")
				s.AddTest(suite.NewTest("t", func() {}).
					InContext(&suite.TestContext{Teardown: func() { panic("cleanup died") }}))
				return s, "an exception was thrown during teardown: [cleanup died]"
			},
		},
		{
			name: "panic in a suite-level setup resolved for the test",
			build: func() (*suite.TestSuite, string) {
				s := suite.New("s")
				s.Setup = func() { panic("suite fixture") }
				s.AddTest(suite.NewTest("t", func() {}))
				return s, "an exception was thrown during setup: [suite fixture]"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, want := tt.build()
			r, _, _ := newTestRunner(t)
			rep := &recordingReporter{}

			res, err := r.RunSuite(context.Background(), s, rep)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, 1, rep.Failures(), "exactly one failure per captured panic")
			assert.Equal(t, 1, rep.Exceptions(), "exactly one exception per captured panic")
			assert.Contains(t, rep.failMessages(), want)
		})
	}
}

func TestPanicInOnePhaseDoesNotSkipLaterPhases(t *testing.T) {
	var trace []string

	s := suite.New("s")
	s.AddTest(suite.NewTest("t", func() { panic("mid-test") }).
		InContext(&suite.TestContext{
			Teardown: func() { trace = append(trace, "teardown") },
		}))

	r, _, books := newTestRunner(t)
	_, err := r.RunSuite(context.Background(), s, &recordingReporter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"teardown"}, trace)
	assert.Equal(t, 1, books.tallies, "mock tally still runs after a captured panic")
}
