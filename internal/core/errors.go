package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes returned to API clients.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeTokenInvalid = "TOKEN_INVALID"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// Error is the typed failure the services raise. It carries an HTTP-ish
// status, a stable code for programmatic handling, and a human message.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound signals that a referenced entity is absent or not owned by the
// caller. Cross-user references are reported with this error, never as a
// permission failure.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

// Invalid signals malformed input or an invalid state transition.
func Invalid(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Message: msg}
}

// Unauthorized signals a missing or unusable identity.
func Unauthorized(code, msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: code, Message: msg}
}

// Conflict signals a uniqueness violation, e.g. duplicate email at signup.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusConflict, Code: CodeConflict, Message: msg}
}

// AsError extracts a typed *Error from err, mapping everything else to an
// internal error so handlers always have a status and code to render.
func AsError(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "internal error"}
}
