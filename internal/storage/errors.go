package storage

import (
	"fmt"

	apperrors "github.com/julianstephens/tally/internal/errors"
)

var (
	ErrNotFound       = apperrors.ErrNotFound
	ErrNotInitialized = apperrors.ErrNotInitialized
	ErrNotLoaded      = fmt.Errorf("storage not loaded")
)

// NotFound wraps ErrNotFound with the kind and key of the missing record.
func NotFound(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
}
