package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

// Failure classes. Wrapped errors answer stderrors.Is against these
// sentinels so callers can branch on the class without string matching.
var (
	ErrValidation  = stderrors.New("validation failure")
	ErrNotFound    = stderrors.New("not found")
	ErrPersistence = stderrors.New("persistence failure")
)

// Error carries a failure class, an HTTP status for the API layer and the
// original cause.
type Error struct {
	Code  int
	Msg   string
	kind  error
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Msg + ": " + e.cause.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.cause }

func (e *Error) Is(target error) bool { return e.kind != nil && target == e.kind }

// HTTPStatus reports the status code an API handler should respond with.
func (e *Error) HTTPStatus() int {
	if e.Code == 0 {
		return http.StatusInternalServerError
	}
	return e.Code
}

// New wraps a plain message as an internal error.
func New(msg string) *Error {
	return &Error{Code: http.StatusInternalServerError, Msg: msg}
}

// Err wraps an arbitrary error as an internal error, keeping an existing
// *Error untouched.
func Err(err error) *Error {
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return &Error{Code: http.StatusInternalServerError, Msg: "internal error", cause: err}
}

// InvalidArg reports an empty or malformed caller input.
func InvalidArg(name string) *Error {
	return &Error{
		Code: http.StatusBadRequest,
		Msg:  fmt.Sprintf("invalid argument: %s", name),
		kind: ErrValidation,
	}
}

// ShardNotFound reports that no shard file exists for a channel.
func ShardNotFound(channel string) *Error {
	return &Error{
		Code: http.StatusNotFound,
		Msg:  fmt.Sprintf("no message shard for channel %q", channel),
		kind: ErrNotFound,
	}
}

// ChannelNotFound reports an unknown channel.
func ChannelNotFound(channel string) *Error {
	return &Error{
		Code: http.StatusNotFound,
		Msg:  fmt.Sprintf("unknown channel %q", channel),
		kind: ErrNotFound,
	}
}

// PersistenceFailed classifies an I/O error from a durable write and wraps
// it. The class is surfaced to the caller, never swallowed.
func PersistenceFailed(op string, cause error) *Error {
	msg := fmt.Sprintf("%s: io failure", op)
	switch {
	case os.IsPermission(cause):
		msg = fmt.Sprintf("%s: access denied", op)
	case stderrors.Is(cause, fs.ErrNotExist):
		msg = fmt.Sprintf("%s: missing directory", op)
	}
	return &Error{
		Code:  http.StatusInternalServerError,
		Msg:   msg,
		kind:  ErrPersistence,
		cause: cause,
	}
}

// LoadCorrupted describes an unreadable or malformed document at startup.
// Callers log it and fall back to defaults; it is never raised to users.
func LoadCorrupted(path string, cause error) *Error {
	return &Error{
		Code:  http.StatusInternalServerError,
		Msg:   fmt.Sprintf("corrupt document at %s", path),
		cause: cause,
	}
}

// QueryFailed wraps a shard query error.
func QueryFailed(err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Msg: "query failed", cause: err}
}

// ScanRowFailed wraps a row scan error.
func ScanRowFailed(err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Msg: "scan row failed", cause: err}
}

// PlatformUnsupported reports an unrecognized platform token.
func PlatformUnsupported(name string) *Error {
	return &Error{
		Code: http.StatusBadRequest,
		Msg:  fmt.Sprintf("unsupported platform %q", name),
		kind: ErrValidation,
	}
}

// Is re-exports the standard helper so callers don't need two imports.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As re-exports the standard helper.
func As(err error, target any) bool { return stderrors.As(err, target) }
