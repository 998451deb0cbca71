// Package acerr implements the abstract error taxonomy from SPEC_FULL.md
// §8: a closed set of Kind values every component reports through, with a
// rich wrapper carrying an operation label and an optional upstream origin
// tag, mirroring the sentinel+wrapper pattern used throughout the teacher's
// internal/openwebif package.
package acerr

import (
	"errors"
	"fmt"
)

// Kind is one of the abstract error kinds from spec.md §7.
type Kind string

const (
	InvalidArgument Kind = "invalid_argument"
	NotFound        Kind = "not_found"
	NotSupported    Kind = "not_supported"
	Timeout         Kind = "timeout"
	Upstream        Kind = "upstream"
	Conflict        Kind = "conflict"
	Internal        Kind = "internal"
)

// Error wraps a Kind with operation context and an optional nested cause.
type Error struct {
	Kind      Kind
	Operation string
	Origin    string // set for Upstream: which third-party service
	Message   string
	Err       error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Operation, e.Kind)
	if e.Origin != "" {
		msg = fmt.Sprintf("%s (origin=%s)", msg, e.Origin)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any target that is an *Error of the same Kind, so
// errors.Is(err, &acerr.Error{Kind: acerr.NotFound}) works; the target's
// other fields are ignored.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New constructs an *Error of the given kind.
func New(kind Kind, operation, message string) *Error {
	return &Error{Kind: kind, Operation: operation, Message: message}
}

// Wrap constructs an *Error of the given kind around a nested cause.
func Wrap(kind Kind, operation string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Operation: operation, Err: err}
}

// WrapUpstream constructs an Upstream error tagged with the origin service.
func WrapUpstream(operation, origin string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: Upstream, Operation: operation, Origin: origin, Err: err}
}

// KindOf extracts the Kind of err, defaulting to Internal when err doesn't
// carry one (e.g. a plain stdlib error bubbled up unexpectedly).
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
