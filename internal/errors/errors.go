package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/tally/internal/logger"
)

// Sentinel errors shared across packages. Wrap them with fmt.Errorf("...: %w", ErrX)
// so callers can branch with errors.Is.
var (
	// ErrNotFound is returned when a habit, task or goal does not exist
	ErrNotFound = stderrors.New("not found")
	// ErrInvalidDate is returned when a calendar date is not in YYYY-MM-DD form
	ErrInvalidDate = stderrors.New("invalid date")
	// ErrInvalidInput is returned when a record fails boundary validation
	ErrInvalidInput = stderrors.New("invalid input")
	// ErrNotInitialized is returned when the store has not been created yet
	ErrNotInitialized = stderrors.New("storage not initialized")
)

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// Hint returns a short suggestion for errors the user can act on, or "" if none applies
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrNotInitialized):
		return "run 'tally init' first"
	case Is(err, ErrInvalidDate):
		return "dates use the YYYY-MM-DD format"
	case Is(err, ErrNotFound):
		return "use the list commands to see existing records"
	}
	return ""
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	if hint := Hint(err); hint != "" {
		return fmt.Sprintf("Error: %v (%s)", err, hint)
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
