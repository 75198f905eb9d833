// Package apperr centralizes the sentinel errors used across the core and
// the mapping from those sentinels to gRPC status codes, generalizing the
// sentinel-error + wrapping pattern the rest of this codebase grew up with.
package apperr

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

// Sentinel errors. Wrap with fmt.Errorf("...: %w", Err...) at each layer
// boundary so errors.Is/errors.As keep working up to the RPC boundary.
var (
	ErrUnauthorized      = errors.New("unauthorized: missing user id")
	ErrValidation        = errors.New("validation failed")
	ErrFileMissing       = errors.New("source file missing")
	ErrParseFailed       = errors.New("document parse failed")
	ErrEmptyExtraction   = errors.New("document produced no chunks")
	ErrDownstream        = errors.New("downstream dependency failed")
	ErrNotFound          = errors.New("not found")
)

// ValidationError wraps a sentinel with the field/value that failed,
// following the reference service's ValidationError shape.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidation builds a ValidationError wrapping ErrValidation.
func NewValidation(field, value string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: ErrValidation}
}

// CodeOf maps an internal error to the gRPC status code that should be
// returned at the RPC boundary.
func CodeOf(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, ErrUnauthorized):
		return codes.Unauthenticated
	case errors.Is(err, ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrFileMissing):
		return codes.NotFound
	case errors.Is(err, ErrDownstream), errors.Is(err, ErrParseFailed):
		return codes.Internal
	default:
		return codes.Unknown
	}
}

// Retryable reports whether an error kind should be retried by the worker's
// broker-driven retry loop, per the ERROR HANDLING DESIGN table: validation
// and missing-file errors are terminal, everything else may be transient.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrValidation):
		return false
	case errors.Is(err, ErrFileMissing):
		return false
	default:
		return true
	}
}
