package common

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies application errors for callers and HTTP mapping.
type ErrorCode string

const (
	CodeValidation        ErrorCode = "validation_error"
	CodeNotFound          ErrorCode = "not_found"
	CodeInvalidTransition ErrorCode = "invalid_transition"
	CodeVerification      ErrorCode = "verification_failed"
	CodeInternal          ErrorCode = "internal_error"
)

// AppError is the error type surfaced by services. It carries a stable code
// so callers can branch on the kind without string matching.
type AppError struct {
	Code    ErrorCode
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError reports malformed input.
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message, Status: http.StatusBadRequest}
}

// NewNotFoundError reports an unknown event, subject, zone or challenge id.
func NewNotFoundError(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message, Status: http.StatusNotFound}
}

// NewInvalidTransitionError reports a status change on an already-terminal event.
func NewInvalidTransitionError(message string) *AppError {
	return &AppError{Code: CodeInvalidTransition, Message: message, Status: http.StatusConflict}
}

// NewVerificationError reports a code mismatch or an expired challenge.
func NewVerificationError(message string) *AppError {
	return &AppError{Code: CodeVerification, Message: message, Status: http.StatusUnauthorized}
}

// NewInternalServerError reports an unexpected failure.
func NewInternalServerError(message string) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError}
}

// WrapInternal attaches an underlying cause to an internal error.
func WrapInternal(message string, err error) *AppError {
	return &AppError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError, Err: err}
}

// AsAppError extracts an *AppError from err, if err wraps one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err is an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
