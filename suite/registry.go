package suite

import "sync"

var (
	registryMu sync.Mutex
	registered []*TestSuite
)

// Register adds a suite to the process-wide registry. User binaries register
// their assembled suites (typically from init functions) and the CLI entry
// point runs everything registered.
func Register(s *TestSuite) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = append(registered, s)
}

// ClearRegistry empties the process-wide registry. Intended for tests that
// assemble their own registration state.
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registered = nil
}

// Registered returns the registered suites in registration order.
func Registered() []*TestSuite {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]*TestSuite, len(registered))
	copy(out, registered)
	return out
}
