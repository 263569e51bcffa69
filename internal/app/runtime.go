package app

import (
	"os"
	"sync"
)

// TestModeEnv switches binaries into test mode when set to "1".
const TestModeEnv = "GHG_TEST_MODE"

var inTestMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether the process runs under tests. It is read once, so
// binaries started by go test skip connecting to Redis and the emissions API.
func InTestMode() bool {
	return inTestMode()
}
