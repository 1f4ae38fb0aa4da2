// Package apperrors classifies failures into a small set of kinds so the HTTP
// boundary can turn them into user-safe responses. Internal details stay in
// the wrapped error and only reach the logs.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Opaque kinds never expose their message or cause to the caller.
func (k Kind) Opaque() bool {
	return k == KindInternal
}

// Error is an application error. Code is a stable machine-readable string,
// Message is safe to show to users.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Validation(message string) error {
	return New(KindValidation, "validation_failed", message)
}

func Unauthorized(message string) error {
	return New(KindUnauthorized, "unauthorized", message)
}

func Forbidden(message string) error {
	return New(KindForbidden, "forbidden", message)
}

func NotFound(resource string) error {
	return New(KindNotFound, "not_found", fmt.Sprintf("%s not found", resource))
}

func Conflict(message string) error {
	return New(KindConflict, "conflict", message)
}

// Internal wraps err as an opaque server error.
func Internal(err error) error {
	return internal(err)
}

func internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal_error", Message: "An internal error occurred", Err: err}
}

// From returns err as an *Error, wrapping unknown errors as internal.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return internal(err)
}

// KindOf reports the kind of err; unknown errors are internal.
func KindOf(err error) Kind {
	return From(err).Kind
}
