package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastArgs   []string
	LastOutput string
	LastStderr string
	LastError  error

	// Test environment
	TempDir string

	// Server management
	HTTPTestServer *HTTPTestServerWrapper

	// HTTP response state
	LastHTTPStatusCode int
	LastHTTPResponse   string
	LastHTTPHeaders    map[string]string
}

// NewTestContext creates a new test context with its own temp directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "formscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{
		TempDir:         tempDir,
		LastHTTPHeaders: map[string]string{},
	}, nil
}

// Cleanup stops the test server and removes the temp directory.
func (testCtx *TestContext) Cleanup() error {
	var errs []error
	if testCtx.HTTPTestServer != nil {
		if err := testCtx.stopTestHTTPServer(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop server: %w", err))
		}
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// Path resolves name inside the scenario's temp directory.
func (testCtx *TestContext) Path(name string) string {
	return filepath.Join(testCtx.TempDir, name)
}

// expand replaces {tmp} with the scenario's temp directory.
func (testCtx *TestContext) expand(s string) string {
	return strings.ReplaceAll(s, "{tmp}", testCtx.TempDir)
}

// writeFile writes content to name inside the temp directory.
func (testCtx *TestContext) writeFile(name, content string) (string, error) {
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
