package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated indicates a missing, invalid or revoked token.
	ErrUnauthenticated = errors.New("unauthorized")
	// ErrForbidden indicates a failed role or ownership check.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("unknown user")
)

type taggedError struct {
	sentinel error
	msg      string
}

func (e taggedError) Error() string { return e.msg }

func (e taggedError) Unwrap() error { return e.sentinel }

// Validationf builds a validation error carrying a user-facing message.
func Validationf(format string, args ...any) error {
	return taggedError{sentinel: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Forbiddenf builds a forbidden error carrying a user-facing message.
func Forbiddenf(format string, args ...any) error {
	return taggedError{sentinel: ErrForbidden, msg: fmt.Sprintf(format, args...)}
}
