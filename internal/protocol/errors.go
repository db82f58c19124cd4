package protocol

import "fmt"

// Code is the error taxonomy carried on every failed response. Every reply
// the daemon sends uses one of these four codes; INTERNAL_ERROR is reserved
// for invariant violations the daemon would rather not hit.
type Code string

const (
	SessionNotFound Code = "SESSION_NOT_FOUND"
	InvalidInput    Code = "INVALID_INPUT"
	CommandFailed   Code = "COMMAND_FAILED"
	InternalError   Code = "INTERNAL_ERROR"
)

// Error is a taxonomy-coded error with an optional actionable suggestion.
// It satisfies the standard error interface so handler code can return it
// like any other error and have dispatch translate it into an ErrorPayload.
type Error struct {
	Code       Code
	Message    string
	Suggestion string
}

func (e *Error) Error() string {
	return e.Message
}

// Newf builds an Error with a formatted message and no suggestion.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithSuggestion returns a copy of e with the suggestion set.
func (e *Error) WithSuggestion(suggestion string) *Error {
	cp := *e
	cp.Suggestion = suggestion
	return &cp
}

// SessionNotFoundErr builds the standard "no such session" error with the
// conventional suggestion to list sessions.
func SessionNotFoundErr(ref string) *Error {
	msg := "no session matches " + quote(ref)
	if ref == "" {
		msg = "no default session exists"
	}
	return &Error{
		Code:       SessionNotFound,
		Message:    msg,
		Suggestion: "run list_sessions to see live sessions",
	}
}

func quote(s string) string {
	return "\"" + s + "\""
}
