// Package apperr classifies errors that cross the service/HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindAuth       Kind = "unauthorized"
	KindConflict   Kind = "conflict"
	KindRemote     Kind = "remote_service"
	KindUnexpected Kind = "internal_error"
)

// Error carries a message that is safe to show to API clients. The wrapped
// error, if any, is for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	case KindConflict:
		return http.StatusConflict
	case KindRemote:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Message: msg} }

func Auth(msg string) error { return &Error{Kind: KindAuth, Message: msg} }

func Conflict(msg string) error { return &Error{Kind: KindConflict, Message: msg} }

func Remote(msg string, err error) error { return &Error{Kind: KindRemote, Message: msg, Err: err} }

func Unexpected(msg string, err error) error {
	return &Error{Kind: KindUnexpected, Message: msg, Err: err}
}

// KindOf returns KindUnexpected for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnexpected
}

func Is(err error, kind Kind) bool { return err != nil && KindOf(err) == kind }

// Public returns the status code and client-facing message for err.
// Unclassified errors never leak their text.
func Public(err error) (int, string, Kind) {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindUnexpected {
		return e.StatusCode(), e.Message, e.Kind
	}
	return http.StatusInternalServerError, "Internal server error", KindUnexpected
}
