package runner

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larch-testing/larch/suite"
)

func TestResolveSetupPrecedence(t *testing.T) {
	var called string
	suiteHook := func() { called = "suite" }
	contextHook := func() { called = "context" }

	cases := []struct {
		name  string
		setup func() (*suite.TestSuite, *suite.Test)
		want  string
	}{
		{
			name: "suite setup wins over context setup",
			setup: func() (*suite.TestSuite, *suite.Test) {
				s := suite.New("s")
				s.Setup = suiteHook
				tc := suite.NewTest("t", func() {}).InContext(&suite.TestContext{Setup: contextHook})
				return s, tc
			},
			want: "suite",
		},
		{
			name: "context setup used when suite has the default",
			setup: func() (*suite.TestSuite, *suite.Test) {
				s := suite.New("s")
				tc := suite.NewTest("t", func() {}).InContext(&suite.TestContext{Setup: contextHook})
				return s, tc
			},
			want: "context",
		},
		{
			name: "no setup anywhere",
			setup: func() (*suite.TestSuite, *suite.Test) {
				return suite.New("s"), suite.NewTest("t", func() {})
			},
			want: "none",
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			s, tc := tt.setup()
			called = ""
			got := resolveSetup(s, tc)
			if tt.want == "none" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			got()
			assert.Equal(t, tt.want, called)
		})
	}
}

func TestSuiteSetupRunsExactlyOnceAndContextSetupNever(t *testing.T) {
	var trace []string

	s := suite.New("legacy")
	s.Setup = func() { trace = append(trace, "suite setup") }
	s.AddTest(suite.NewTest("t", func() { trace = append(trace, "body") }).
		InContext(&suite.TestContext{
			Setup: func() { trace = append(trace, "context setup") },
		}))

	r, _, _ := newTestRunner(t)
	_, err := r.RunSuite(context.Background(), s, &recordingReporter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"suite setup", "body"}, trace)
}

func TestTeardownPrecedenceMirrorsSetup(t *testing.T) {
	var trace []string

	s := suite.New("legacy")
	s.Teardown = func() { trace = append(trace, "suite teardown") }
	s.AddTest(suite.NewTest("t", func() { trace = append(trace, "body") }).
		InContext(&suite.TestContext{
			Teardown: func() { trace = append(trace, "context teardown") },
		}))

	r, _, _ := newTestRunner(t)
	_, err := r.RunSuite(context.Background(), s, &recordingReporter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"body", "suite teardown"}, trace)
}

func TestContextHooksRunWhenSuiteHasDefaults(t *testing.T) {
	var trace []string

	s := suite.New("modern")
	s.AddTest(suite.NewTest("t", func() { trace = append(trace, "body") }).
		InContext(&suite.TestContext{
			Setup:    func() { trace = append(trace, "context setup") },
			Teardown: func() { trace = append(trace, "context teardown") },
		}))

	r, _, _ := newTestRunner(t)
	_, err := r.RunSuite(context.Background(), s, &recordingReporter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"context setup", "body", "context teardown"}, trace)
}
