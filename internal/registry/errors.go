package registry

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a registry result carrying an HTTP status and a human-readable
// message. It is raised at the point of detection and propagated unmodified
// to the request boundary; the HTTP layer translates it into a wire
// response. Package-manager clients expect plain-text bodies, not JSON.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Status)
}

func newError(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

func BadRequest(format string, args ...any) *Error {
	return newError(http.StatusBadRequest, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return newError(http.StatusNotFound, format, args...)
}

func PayloadTooLarge(format string, args ...any) *Error {
	return newError(http.StatusRequestEntityTooLarge, format, args...)
}

func NotAcceptable(format string, args ...any) *Error {
	return newError(http.StatusNotAcceptable, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return newError(http.StatusUnauthorized, format, args...)
}

func Forbidden(format string, args ...any) *Error {
	return newError(http.StatusForbidden, format, args...)
}

// StatusOf extracts the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var re *Error
	if errors.As(err, &re) {
		return re.Status
	}
	return http.StatusInternalServerError
}
