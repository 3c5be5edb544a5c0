// Package errkind classifies the error taxonomy the orchestrator and its
// collaborators use to decide whether a failure is recoverable in-band
// (the model gets to react) or terminates the turn.
package errkind

import "errors"

// Kind identifies one row of the error taxonomy.
type Kind string

const (
	AuthMissing      Kind = "auth_missing"
	AuthInvalid      Kind = "auth_invalid"
	ProviderTransport Kind = "provider_transport"
	ProviderProtocol Kind = "provider_protocol"
	ToolInvalidArgs  Kind = "tool_invalid_args"
	ToolRuntime      Kind = "tool_runtime"
	ToolTimeout      Kind = "tool_timeout"
	Cancelled        Kind = "cancelled"
	PersistFailure   Kind = "persist_failure"
)

// Error wraps an underlying error with a taxonomy Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with the given Kind. Returns nil if err is nil.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, or "" if err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
