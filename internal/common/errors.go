package common

import (
	"errors"
	"fmt"
)

var (
	// repository specific errors
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// service specific errors
	ErrorValidation   = errors.New("validation error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorInternal     = errors.New("internal error")

	// token errors
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field    string `json:"field"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// Error is a classified failure carrying a user-facing message. Kind is one
// of the sentinel errors above and is what errors.Is matches against.
type Error struct {
	Kind    error
	Message string
	Fields  []FieldError
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Message: msg}
}

func Validation(format string, args ...any) *Error {
	return newError(ErrorValidation, format, args...)
}

// ValidationFields returns a validation error listing the offending fields.
func ValidationFields(msg string, fields []FieldError) *Error {
	return &Error{Kind: ErrorValidation, Message: msg, Fields: fields}
}

func Unauthorized(format string, args ...any) *Error {
	return newError(ErrorUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(ErrorForbidden, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(ErrorNotFound, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return newError(ErrorAlreadyExists, format, args...)
}

func Internal(format string, args ...any) *Error {
	return newError(ErrorInternal, format, args...)
}

// MessageOf returns the user-facing message of a classified error, or an
// empty string.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
