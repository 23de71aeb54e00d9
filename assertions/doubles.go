// Package assertions holds the numeric-comparison knobs shared by assertion
// and mock-argument matching code. The engine resets the precision before
// every test so one test's tuning cannot leak into the next.
package assertions

import "math"

// DefaultSignificantFigures is the precision restored before each test.
const DefaultSignificantFigures = 8

var significantFigures = DefaultSignificantFigures

// SetSignificantFigures sets the number of significant figures used when
// comparing floating point values. Values below 1 are clamped to 1.
func SetSignificantFigures(n int) {
	if n < 1 {
		n = 1
	}
	significantFigures = n
}

// ResetSignificantFigures restores the default precision.
func ResetSignificantFigures() {
	significantFigures = DefaultSignificantFigures
}

// SignificantFigures returns the currently configured precision.
func SignificantFigures() int {
	return significantFigures
}

// FloatsEqual compares two floats to the configured number of significant
// figures.
func FloatsEqual(a, b float64) bool {
	if a == b {
		return true
	}
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	largest := math.Max(math.Abs(a), math.Abs(b))
	tolerance := largest * math.Pow(10, -float64(significantFigures))
	return math.Abs(a-b) <= tolerance
}
