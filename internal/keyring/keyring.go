// Package keyring keeps tally's secrets in the OS keyring: the PostgreSQL
// connection string and the HS256 secret used by `tally serve`.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/tally/internal/constants"
)

// Account names under the tally service entry
const (
	AccountConnection = constants.DefaultKeyringUser
	AccountJWTSecret  = "api-jwt-secret"
)

var (
	// ErrNotFound is returned when nothing is stored for an account
	ErrNotFound = errors.New("secret not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring cannot be reached
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
	// ErrEmptySecret is returned when asked to store an empty value
	ErrEmptySecret = errors.New("secret cannot be empty")
)

// Get reads the secret stored for account.
func Get(account string) (string, error) {
	secret, err := keyring.Get(constants.AppName, account)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNotFound
	case err != nil:
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

// Set stores secret for account, replacing any previous value.
func Set(account, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return ErrEmptySecret
	}
	if err := keyring.Set(constants.AppName, account, secret); err != nil {
		return fmt.Errorf("storing %s in keyring: %w", account, err)
	}
	return nil
}

// Delete removes the secret stored for account.
func Delete(account string) error {
	err := keyring.Delete(constants.AppName, account)
	switch {
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case err != nil:
		return fmt.Errorf("deleting %s from keyring: %w", account, err)
	}
	return nil
}

// GetConnectionString returns the stored PostgreSQL connection string.
func GetConnectionString() (string, error) {
	return Get(AccountConnection)
}

// SetConnectionString stores the PostgreSQL connection string.
func SetConnectionString(connStr string) error {
	return Set(AccountConnection, connStr)
}

// DeleteConnectionString removes the stored PostgreSQL connection string.
func DeleteConnectionString() error {
	return Delete(AccountConnection)
}

// JWTSecret returns the stored API signing secret.
func JWTSecret() (string, error) {
	return Get(AccountJWTSecret)
}

// IsAvailable reports whether the OS keyring answers a read. A missing entry
// still counts as available.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
