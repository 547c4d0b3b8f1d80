package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies every failure the bridge can surface to a caller.
type ErrorKind string

const (
	// ErrUnknownAction is returned when the action name is not in the
	// enumerated action set.
	ErrUnknownAction ErrorKind = "UnknownAction"
	// ErrInvalidParameter is returned when a required request parameter is
	// missing or malformed.
	ErrInvalidParameter ErrorKind = "InvalidParameter"
	// ErrNotConfigured is returned when an action is dispatched before the
	// container/account state it requires has been established.
	ErrNotConfigured ErrorKind = "NotConfigured"
	// ErrContainerNotReady is returned when the CLI container is missing or
	// not running.
	ErrContainerNotReady ErrorKind = "ContainerNotReady"
	// ErrCommandTimeout is returned when a command exceeds the execution
	// timeout.
	ErrCommandTimeout ErrorKind = "CommandTimeout"
	// ErrCommandFailed is returned when the CLI exits non-zero.
	ErrCommandFailed ErrorKind = "CommandFailed"
	// ErrParse is returned when the CLI output could not be turned into a
	// domain record.
	ErrParse ErrorKind = "ParseError"
	// ErrNotFound is the valid negative result of a targeted lookup.
	ErrNotFound ErrorKind = "NotFound"
)

// Error is the structured error shape every pipeline stage resolves to.
// Detail carries raw diagnostic text (stderr, unparsed output) so a caller
// can diagnose an external-tool version mismatch.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Detail  string    `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewError builds a typed Error without raw detail text.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewErrorDetail builds a typed Error carrying raw diagnostic text.
func NewErrorDetail(kind ErrorKind, detail, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Detail: detail}
}

// AsError converts any error into the structured shape. Errors that did not
// originate in this pipeline are reported as CommandFailed so the boundary
// never leaks an untyped error.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return &Error{Kind: ErrCommandFailed, Message: err.Error()}
}

// KindOf reports the kind of err, or "" if err is nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}
