package runner

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PerTestTimeoutEnvVar configures the per-test timeout, in whole seconds.
// Absent means no timeout enforcement. A value that is non-numeric, zero or
// negative is a fatal configuration error, detected before any test runs.
const PerTestTimeoutEnvVar = "LARCH_PER_TEST_TIMEOUT"

// perTestTimeout reads and validates the timeout from the environment.
// defined reports whether the variable is set at all; err is non-nil only for
// a defined-but-invalid value.
func perTestTimeout() (timeout time.Duration, defined bool, err error) {
	raw, ok := os.LookupEnv(PerTestTimeoutEnvVar)
	if !ok {
		return 0, false, nil
	}
	seconds, convErr := strconv.Atoi(strings.TrimSpace(raw))
	if convErr != nil {
		return 0, true, fmt.Errorf("invalid value for %s environment variable: %q", PerTestTimeoutEnvVar, raw)
	}
	if seconds <= 0 {
		return 0, true, fmt.Errorf("invalid value for %s environment variable: %d", PerTestTimeoutEnvVar, seconds)
	}
	return time.Duration(seconds) * time.Second, true, nil
}
