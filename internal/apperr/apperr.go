// Package apperr defines the error taxonomy shared by services and handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("not found")
	ErrProvider      = errors.New("external provider error")
	ErrNotConfigured = errors.New("feature not configured")
)

// Error carries a client-facing message and unwraps to one of the sentinel kinds.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Validation reports malformed or missing input.
func Validation(format string, args ...any) error {
	return newError(ErrValidation, format, args...)
}

// NotFound reports that no record or room matches an identifier.
func NotFound(format string, args ...any) error {
	return newError(ErrNotFound, format, args...)
}

// Provider reports a failed call to the chat or room provider.
func Provider(format string, args ...any) error {
	return newError(ErrProvider, format, args...)
}

// NotConfigured reports a feature disabled for lack of credentials.
func NotConfigured(format string, args ...any) error {
	return newError(ErrNotConfigured, format, args...)
}
