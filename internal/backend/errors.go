package backend

import (
	"errors"
	"fmt"
)

// Error kinds. Each surfaced error wraps exactly one of these.
var (
	ErrMissingCredential       = errors.New("missing credential")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrTransportFailure        = errors.New("transport failure")
	ErrNoChoicesReturned       = errors.New("no choices returned")
	ErrEmptyOutput             = errors.New("empty output")
	ErrToolNotInvoked          = errors.New("tool not invoked")
	ErrInvalidJSON             = errors.New("invalid JSON")
	ErrUnexpectedResponseShape = errors.New("unexpected response shape")
)

var kinds = []error{
	ErrMissingCredential,
	ErrUnauthorized,
	ErrTransportFailure,
	ErrNoChoicesReturned,
	ErrEmptyOutput,
	ErrToolNotInvoked,
	ErrInvalidJSON,
	ErrUnexpectedResponseShape,
}

// Error is the structured error returned across the core's boundary.
type Error struct {
	Kind     error
	Provider Provider
	Detail   string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Provider != "" {
		msg = string(e.Provider) + ": " + msg
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds an Error of the given kind with a formatted detail.
func Errorf(kind error, provider Provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Detail: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error of the given kind around a cause.
func Wrap(kind error, provider Provider, detail string, err error) *Error {
	return &Error{Kind: kind, Provider: provider, Detail: detail, Err: err}
}

// KindOf returns the taxonomy sentinel carried by err, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
