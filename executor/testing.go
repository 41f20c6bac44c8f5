package executor

import (
	"io"
	"log/slog"
	"sync"
)

// TestExecutor provides a shared executor for tests to avoid repeated runtime setup.
// Use GetTestExecutor() to get a shared instance that's reused across tests.
var (
	testExecutor     *Executor
	testExecutorOnce sync.Once
	testExecutorErr  error
)

// GetTestExecutor returns a shared executor for testing with the default
// boundary and a discarding logger. The executor is created once and reused.
func GetTestExecutor() (*Executor, error) {
	testExecutorOnce.Do(func() {
		testExecutor, testExecutorErr = New(nil, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	})
	return testExecutor, testExecutorErr
}

// CloseTestExecutor closes the shared test executor.
// Call this in TestMain if needed, but typically not necessary.
func CloseTestExecutor() {
	if testExecutor != nil {
		testExecutor.Close()
		testExecutor = nil
		testExecutorOnce = sync.Once{} // Reset for next test run
	}
}
