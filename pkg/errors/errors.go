// Package errors classifies the failures both services surface to users.
// A failure is either input rejected locally or a feedback API call that
// did not succeed; everything else is internal.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation    = errors.New("validation failed")
	ErrInvalidInput  = errors.New("invalid input")
	ErrRequestFailed = errors.New("request failed")
	ErrUnavailable   = errors.New("service unavailable")
	ErrInternal      = errors.New("internal error")
)

// Class is the public face of a sentinel: the code and status written to
// clients, and the message used when the error carries none of its own.
type Class struct {
	Code    string
	Status  int
	Message string
}

var (
	validation    = Class{"VALIDATION_ERROR", http.StatusBadRequest, ""}
	invalidInput  = Class{"INVALID_INPUT", http.StatusBadRequest, ""}
	unavailable   = Class{"SERVICE_UNAVAILABLE", http.StatusServiceUnavailable, "the feedback service is unavailable"}
	requestFailed = Class{"REQUEST_FAILED", http.StatusBadGateway, "the feedback service request failed"}
	internal      = Class{"INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"}
)

// ErrUnavailable wraps ErrRequestFailed, so it must be matched first.
var classes = []struct {
	sentinel error
	Class
}{
	{ErrValidation, validation},
	{ErrInvalidInput, invalidInput},
	{ErrUnavailable, unavailable},
	{ErrRequestFailed, requestFailed},
}

// Classify maps err to its Class. An AppError keeps its own code, status
// and message. A bare validation sentinel exposes err's text, since it
// describes the caller's input.
func Classify(err error) Class {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return Class{Code: appErr.Code, Status: appErr.Status, Message: appErr.Message}
	}
	for _, c := range classes {
		if !errors.Is(err, c.sentinel) {
			continue
		}
		cl := c.Class
		if cl.Message == "" {
			cl.Message = err.Error()
		}
		return cl
	}
	return internal
}

// AppError is an error with a client-safe Message and the HTTP status to
// answer with.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func newAppError(c Class, message string, err error) *AppError {
	return &AppError{Code: c.Code, Message: message, Status: c.Status, Err: err}
}

// Validation rejects input before any network call.
func Validation(message string) *AppError {
	return newAppError(validation, message, ErrValidation)
}

// InvalidInput rejects a malformed request to one of our own handlers.
func InvalidInput(message string) *AppError {
	return newAppError(invalidInput, message, ErrInvalidInput)
}

// Unavailable means the feedback API is not being called at all, which
// happens while the circuit breaker is open.
func Unavailable(message string) *AppError {
	return newAppError(unavailable, message, fmt.Errorf("%w: %w", ErrRequestFailed, ErrUnavailable))
}

// RequestFailed reports a feedback API call that did not succeed. status is
// the upstream status, or 0 for transport failures. Upstream 4xx statuses
// pass through; anything else becomes 502.
func RequestFailed(status int, message string, cause error) *AppError {
	c := requestFailed
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		c.Status = status
	}
	err := ErrRequestFailed
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrRequestFailed, cause)
	}
	return newAppError(c, message, err)
}

// Internal hides err behind a generic message.
func Internal(err error) *AppError {
	return newAppError(internal, internal.Message, fmt.Errorf("%w: %w", ErrInternal, err))
}

// UserMessage returns the AppError message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// HTTPStatus is Classify(err).Status.
func HTTPStatus(err error) int {
	return Classify(err).Status
}
