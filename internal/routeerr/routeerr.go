// Package routeerr defines the closed set of error kinds the core can
// surface (§7). It replaces loose exception types with a tagged
// struct so callers can switch on Kind without type assertions.
package routeerr

import "fmt"

// Kind is a machine-readable error tag.
type Kind string

const (
	KindInvalidInput      Kind = "InvalidInput"
	KindNoNavigableArea   Kind = "NoNavigableArea"
	KindNoRoute           Kind = "NoRoute"
	KindWeatherFetchFailed Kind = "WeatherFetchFailed"
	KindMeshingFailed     Kind = "MeshingFailed"
	KindTransient         Kind = "Transient"
)

// Error is the core's single error type: a kind tag, a short human
// message, and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap builds an Error wrapping an existing error.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	re, ok := err.(*Error)
	return ok && re.Kind == kind
}
