// Package apperror defines the error taxonomy shared by every layer.
//
// Lower layers return these errors; only the HTTP layer decides what
// status code each one becomes (see handler.writeError).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrStorage    = errors.New("storage error")
)

type AppError struct {
	Err     error  // sentinel: one of the Err* values above
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: the underlying driver/backend error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause, so callers can ask
// errors.Is(err, ErrStorage) and still errors.As the driver's own error type.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource string, id any) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %v", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Conflict reports a write that collides with data already stored,
// such as a duplicate key.
func Conflict(message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: message,
	}
}

// WithCause attaches the underlying error and returns e. Message stays what
// the client sees; the cause is for logs and errors.As.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// Storage wraps a backend failure (connection, constraint, malformed
// statement). op names the operation, e.g. "inserting article".
func Storage(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStorage,
		Message: op,
		Cause:   cause,
	}
}
