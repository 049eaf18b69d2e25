package errs

import (
	"errors"
	"net/http"
)

// Kind classifies a flow failure.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindNotImplemented
	KindTooManyRequests
)

// Status returns the HTTP status matching the kind.
func (k Kind) Status() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindNotImplemented:
		return http.StatusNotImplemented
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Error is a failure with a kind and a message safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
	// Err is the underlying cause, never exposed to the caller.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error of the given kind.
func E(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func BadRequest(msg string) error     { return E(KindBadRequest, msg, nil) }
func NotFound(msg string) error       { return E(KindNotFound, msg, ErrNotFound) }
func NotImplemented(msg string) error { return E(KindNotImplemented, msg, nil) }
func Unauthorized(msg string) error   { return E(KindUnauthorized, msg, ErrUnauthorized) }

// As extracts the *Error carried by err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
