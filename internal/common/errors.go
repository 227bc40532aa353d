// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Input and lookup errors, always rejected before any mutation.
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")

	// ErrStorageFailure means the underlying store is unavailable or
	// corrupt; the attempted operation had no effect.
	ErrStorageFailure = errors.New("storage failure")

	// ErrCryptoFailure means a key mismatch or a corrupted encrypted
	// payload. Fatal for snapshot restores; individual encrypted fields
	// degrade to empty on read instead.
	ErrCryptoFailure = errors.New("crypto failure")
)

// UserError represents an error that should be shown to the operator.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
