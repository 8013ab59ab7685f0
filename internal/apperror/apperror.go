package apperror

import (
	"errors"
)

var (
	ErrValidation  = errors.New("validation error")
	ErrUnavailable = errors.New("unavailable")
)

// AppError carries a domain error plus a human-readable message. The HTTP
// layer maps the wrapped sentinel to a status code; the message is what
// clients see.
type AppError struct {
	Err     error  // actual error
	Message string // human-readable error message
	Field   string // optional: field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

// Unavailable reports that a required backend is not running.
// HTTP handlers map this to 503 Service Unavailable.
func Unavailable(message string) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: message,
	}
}
