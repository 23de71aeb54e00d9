// Package suite defines the test tree: named suites holding an ordered mix of
// leaf tests and nested suites. The tree is built once by suite-assembly code
// and is read-only for the lifetime of a run; mutating it during traversal is
// undefined behavior.
package suite

import (
	"runtime"
	"strings"
)

// Entry is one slot in a suite, holding either a leaf Test or a nested Suite.
// Exactly one of the two fields is non-nil.
type Entry struct {
	Test  *Test
	Suite *TestSuite
}

// TestSuite is a named node in the test tree. Entries execute in insertion
// order. Setup and Teardown are optional; nil means the canonical no-op.
type TestSuite struct {
	Name     string
	Filename string
	Line     int
	Setup    func()
	Teardown func()

	entries []Entry
}

// New creates an empty suite, recording the caller's source location for
// reporting.
func New(name string) *TestSuite {
	s := &TestSuite{Name: name}
	if _, file, line, ok := runtime.Caller(1); ok {
		s.Filename = file
		s.Line = line
	}
	return s
}

// AddTest appends a leaf test to the suite.
func (s *TestSuite) AddTest(t *Test) {
	s.entries = append(s.entries, Entry{Test: t})
}

// AddSuite appends a nested suite.
func (s *TestSuite) AddSuite(sub *TestSuite) {
	s.entries = append(s.entries, Entry{Suite: sub})
}

// Entries returns the suite's entries in declaration order. The slice is
// owned by the suite; callers must not modify it.
func (s *TestSuite) Entries() []Entry {
	return s.entries
}

// CountTests returns the number of leaf tests in the subtree rooted at s.
func (s *TestSuite) CountTests() int {
	count := 0
	for _, e := range s.entries {
		if e.Test != nil {
			count++
		} else {
			count += e.Suite.CountTests()
		}
	}
	return count
}

// HasTest reports whether a leaf test with the given name exists anywhere in
// the subtree rooted at s.
func (s *TestSuite) HasTest(name string) bool {
	for _, e := range s.entries {
		if e.Test != nil {
			if e.Test.Name == name {
				return true
			}
		} else if e.Suite.HasTest(name) {
			return true
		}
	}
	return false
}

// NamePath joins suite and test names into the slash-separated path that
// addresses a leaf test from the tree root.
func NamePath(parts ...string) string {
	return strings.Join(parts, "/")
}

// HasSetup reports whether the suite carries a non-default setup hook.
func (s *TestSuite) HasSetup() bool {
	return s.Setup != nil
}

// HasTeardown reports whether the suite carries a non-default teardown hook.
func (s *TestSuite) HasTeardown() bool {
	return s.Teardown != nil
}
