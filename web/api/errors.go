package api

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Sentinel errors for error classification
var (
	ErrBadRequest          = errors.New(http.StatusText(http.StatusBadRequest))
	ErrNotFound            = errors.New(http.StatusText(http.StatusNotFound))
	ErrInternalServerError = errors.New(http.StatusText(http.StatusInternalServerError))
)

// Error is an API failure with a user-facing message. The cause is kept
// for logging and is only shown to clients for validation errors.
type Error struct {
	cause    error
	message  string
	httpCode int
}

func newError(code int, cause error, exposeCause bool) *Error {
	message := http.StatusText(code)
	if exposeCause {
		message = cause.Error()
	}
	return &Error{cause: cause, message: message, httpCode: code}
}

// BadRequest exposes the cause; binding and criteria errors are safe to show
func BadRequest(cause error) *Error {
	return newError(http.StatusBadRequest, cause, true)
}

// NotFound reports an unknown route or resource
func NotFound(cause error) *Error {
	return newError(http.StatusNotFound, cause, false)
}

// InternalServerError hides the cause behind the generic status text
func InternalServerError(cause error) *Error {
	return newError(http.StatusInternalServerError, cause, false)
}

// Wrap turns any error into an API error. API errors pass through unchanged,
// anything else becomes a 500.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	return InternalServerError(err)
}

func (e *Error) HTTPCode() int { return e.httpCode }
func (e *Error) Error() string { return e.message }
func (e *Error) Unwrap() error { return e.cause }
func (e *Error) Cause() error  { return e.cause }

// Is matches the class sentinel of the status code as well as the cause chain
func (e *Error) Is(target error) bool {
	switch target {
	case ErrBadRequest:
		return e.httpCode == http.StatusBadRequest
	case ErrNotFound:
		return e.httpCode == http.StatusNotFound
	case ErrInternalServerError:
		return e.httpCode == http.StatusInternalServerError
	}
	return errors.Is(e.cause, target)
}

// MarshalJSON renders {"code": ..., "message": ...}
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}{Code: e.httpCode, Message: e.message})
}
