package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      stderrors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "not initialized gets a hint",
			err:      fmt.Errorf("open store: %w", ErrNotInitialized),
			expected: "Error: open store: storage not initialized (run 'tally init' first)",
		},
		{
			name:     "invalid date gets a hint",
			err:      fmt.Errorf("%w: %q", ErrInvalidDate, "2024-13-01"),
			expected: "Error: invalid date: \"2024-13-01\" (dates use the YYYY-MM-DD format)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Format(tt.err))
		})
	}
}

func TestFormatf(t *testing.T) {
	assert.Equal(t, "Error: failed to load database", Formatf("failed to load %s", "database"))
	assert.Equal(t, "Error: connection to localhost:5432 failed", Formatf("connection to %s:%d failed", "localhost", 5432))
}

func TestHint(t *testing.T) {
	assert.Empty(t, Hint(nil))
	assert.Empty(t, Hint(stderrors.New("plain")))
	assert.NotEmpty(t, Hint(fmt.Errorf("habit x: %w", ErrNotFound)))
}

// TestFatal runs Fatal in a helper process and checks the exit code and message
func TestFatal(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL") == "1" {
		Fatal(stderrors.New("test error"))
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal$")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL=1")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if e, ok := err.(*exec.ExitError); ok && !e.Success() {
		assert.Equal(t, 1, e.ExitCode())
		assert.True(t, strings.Contains(stderr.String(), "Error: test error"), "stderr = %q", stderr.String())
	} else {
		t.Errorf("Fatal() did not exit with error: %v", err)
	}
}

func TestFatal_NilError(t *testing.T) {
	if os.Getenv("GO_TEST_FATAL_NIL") == "1" {
		Fatal(nil)
		os.Exit(0)
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFatal_NilError")
	cmd.Env = append(os.Environ(), "GO_TEST_FATAL_NIL=1")
	if err := cmd.Run(); err != nil {
		t.Errorf("Fatal(nil) should not exit, but got error: %v", err)
	}
}
