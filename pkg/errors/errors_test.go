package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	bare := &AppError{Code: "VALIDATION_ERROR", Message: "Please select a rating"}
	assert.Equal(t, "VALIDATION_ERROR: Please select a rating", bare.Error())
	assert.Nil(t, bare.Unwrap())

	wrapped := &AppError{Code: "REQUEST_FAILED", Message: "could not submit", Err: errors.New("connection reset")}
	assert.Equal(t, "REQUEST_FAILED: could not submit: connection reset", wrapped.Error())
}

func TestConstructors(t *testing.T) {
	cause := errors.New("dial tcp: refused")

	tests := []struct {
		name       string
		err        *AppError
		code       string
		status     int
		is         []error
		isNot      []error
		validation bool
	}{
		{
			name: "validation", err: Validation("Please write a review"),
			code: "VALIDATION_ERROR", status: http.StatusBadRequest,
			is: []error{ErrValidation}, isNot: []error{ErrRequestFailed}, validation: true,
		},
		{
			name: "invalid input", err: InvalidInput("bad json"),
			code: "INVALID_INPUT", status: http.StatusBadRequest,
			is: []error{ErrInvalidInput}, isNot: []error{ErrValidation},
		},
		{
			name: "upstream 4xx kept", err: RequestFailed(http.StatusBadRequest, "Review text is required", nil),
			code: "REQUEST_FAILED", status: http.StatusBadRequest,
			is: []error{ErrRequestFailed}, isNot: []error{ErrValidation},
		},
		{
			name: "upstream 5xx becomes 502", err: RequestFailed(http.StatusInternalServerError, "boom", nil),
			code: "REQUEST_FAILED", status: http.StatusBadGateway,
			is: []error{ErrRequestFailed},
		},
		{
			name: "transport cause", err: RequestFailed(0, "Failed to submit. Please try again.", cause),
			code: "REQUEST_FAILED", status: http.StatusBadGateway,
			is: []error{ErrRequestFailed, cause},
		},
		{
			name: "unavailable", err: Unavailable("feedback api unavailable"),
			code: "SERVICE_UNAVAILABLE", status: http.StatusServiceUnavailable,
			is: []error{ErrUnavailable, ErrRequestFailed},
		},
		{
			name: "internal", err: Internal(cause),
			code: "INTERNAL_ERROR", status: http.StatusInternalServerError,
			is: []error{ErrInternal, cause}, isNot: []error{ErrRequestFailed},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Equal(t, tt.validation, IsValidation(tt.err))
			for _, target := range tt.is {
				assert.ErrorIs(t, tt.err, target)
			}
			for _, target := range tt.isNot {
				assert.NotErrorIs(t, tt.err, target)
			}
		})
	}
}

func TestInternal_HidesCause(t *testing.T) {
	err := Internal(errors.New("template exploded"))
	assert.Equal(t, "an internal error occurred", err.Message)
}

func TestUserMessage(t *testing.T) {
	const fallback = "Failed to submit. Please try again."

	assert.Equal(t, "Please select a rating", UserMessage(Validation("Please select a rating"), fallback))
	assert.Equal(t, "Review text is required",
		UserMessage(fmt.Errorf("submit: %w", RequestFailed(400, "Review text is required", nil)), fallback))
	assert.Equal(t, fallback, UserMessage(&AppError{Code: "X"}, fallback))
	assert.Equal(t, fallback, UserMessage(errors.New("eof"), fallback))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"app error", RequestFailed(404, "not found", nil), Class{"REQUEST_FAILED", http.StatusNotFound, "not found"}},
		{"bare validation shows text", fmt.Errorf("rating: %w", ErrValidation), Class{"VALIDATION_ERROR", http.StatusBadRequest, "rating: validation failed"}},
		{"bare invalid input", ErrInvalidInput, Class{"INVALID_INPUT", http.StatusBadRequest, "invalid input"}},
		{"unavailable before request failed", fmt.Errorf("%w: %w", ErrRequestFailed, ErrUnavailable), unavailable},
		{"bare request failed hides text", fmt.Errorf("secret host: %w", ErrRequestFailed), requestFailed},
		{"unknown", errors.New("unknown"), internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
			assert.Equal(t, tt.want.Status, HTTPStatus(tt.err))
		})
	}
}
