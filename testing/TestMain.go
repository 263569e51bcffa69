// Package testing is imported for its side effects by tests that build the
// application: it switches the process into test mode and points every
// outbound dependency at an address nothing listens on.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

// unreachable is a reserved address, so a test that forgets its stub fails fast
// instead of calling a real service.
const unreachable = "http://127.0.0.1:0"

var once sync.Once

var defaults = map[string]string{
	"GHG_TEST_MODE":    "1",
	"GHG_API_BASE_URL": unreachable,
	"GOTENBERG_URL":    unreachable,
	"CSRF_SECRET":      "test-secret",
}

func enterTestMode() {
	once.Do(func() {
		for key, value := range defaults {
			if key != "GHG_TEST_MODE" && os.Getenv(key) != "" {
				continue
			}
			_ = os.Setenv(key, value)
		}
	})
}

func init() {
	enterTestMode()
}

// TestMain lets packages delegate their TestMain here.
func TestMain(m *stdtesting.M) {
	enterTestMode()
	os.Exit(m.Run())
}
