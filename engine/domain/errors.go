package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying pipeline failures. Callers match with
// errors.Is to decide retry policy and HTTP status mapping.
var (
	ErrInvalidQuery     = errors.New("invalid query")
	ErrEmbedding        = errors.New("embedding failure")
	ErrIndexUnavailable = errors.New("vector index unavailable")
	ErrGeneration       = errors.New("generation failure")
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// permanentError marks an error that must not be retried (bad input,
// dimension mismatch, auth failure).
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so IsPermanent reports true. Wrapping nil returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err (or any error it wraps) was marked
// permanent. Validation failures are always permanent.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrInvalidQuery) {
		return true
	}
	var pe *permanentError
	return errors.As(err, &pe)
}
