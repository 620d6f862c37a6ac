package verification

import "errors"

// Kind classifies a user-facing verification failure.
type Kind string

const (
	KindEmptyInput           Kind = "empty_input"
	KindUnknownUsername      Kind = "unknown_username"
	KindInvalidPin           Kind = "invalid_pin"
	KindDirectoryUnavailable Kind = "directory_unavailable"
	KindSessionUnavailable   Kind = "session_unavailable"
)

// Error is a recoverable failure surfaced to the person at the terminal.
// Two Errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func (e *Error) wrap(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

func (e *Error) withHint(hint string) *Error {
	if hint == "" {
		return e
	}
	return &Error{Kind: e.Kind, Message: e.Message + ". " + hint, Err: e.Err}
}

var (
	ErrEmptyInput           = &Error{Kind: KindEmptyInput, Message: "Please enter a username"}
	ErrUnknownUsername      = &Error{Kind: KindUnknownUsername, Message: "Username not found"}
	ErrInvalidPin           = &Error{Kind: KindInvalidPin, Message: "Invalid PIN. Please try again."}
	ErrDirectoryUnavailable = &Error{Kind: KindDirectoryUnavailable, Message: "Staff directory is unavailable. Please try again."}
	ErrSessionUnavailable   = &Error{Kind: KindSessionUnavailable, Message: "Could not sign you in. Please try again."}
)

// Guard violations. These mean the caller drove the machine out of order and
// never change its state.
var (
	ErrWrongPhase   = errors.New("transition not allowed in current phase")
	ErrPinFull      = errors.New("PIN already complete")
	ErrInvalidDigit = errors.New("PIN digit must be 0-9")
	ErrClosed       = errors.New("verification already completed")
)
