package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an AppError independently of its message.
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindInvalidState
	KindInvalidArgument
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindInvalidState:
		return "invalid_state"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// Status returns the HTTP status code used for the kind.
// Forbidden is reported as 404 to API clients.
func (k Kind) Status() int {
	switch k {
	case KindNotFound, KindForbidden:
		return http.StatusNotFound
	case KindInvalidState, KindInvalidArgument:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError is a custom error type that includes an error kind, the HTTP status code and an optional wrapped error.
type AppError struct {
	Kind    Kind   // Error classification
	Code    int    // HTTP Status Code (e.g., 400, 404)
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same kind and message.
// This lets a wrapped copy of a sentinel match the sentinel itself.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

// New creates a new AppError with a kind and message.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.Status(),
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Code:    kind.Status(),
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *AppError        { return New(KindNotFound, message) }
func Forbidden(message string) *AppError       { return New(KindForbidden, message) }
func InvalidState(message string) *AppError    { return New(KindInvalidState, message) }
func InvalidArgument(message string) *AppError { return New(KindInvalidArgument, message) }
func Conflict(message string) *AppError        { return New(KindConflict, message) }

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}
