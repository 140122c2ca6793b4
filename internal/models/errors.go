package models

import (
	"errors"
	"fmt"
)

// AppError is the error type returned by every client operation. No
// operation in the client is fatal; each failure maps to a code so the
// presentation layer can decide how to surface it.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error codes used across the client.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeNotFound     = "NOT_FOUND"
	CodeTransport    = "TRANSPORT_ERROR"
	CodeServer       = "SERVER_ERROR"
)

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{Code: CodeValidation, Message: message}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: CodeUnauthorized, Message: message}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// NewTransportError wraps a network-level failure (timeout, connectivity
// loss) behind the generic message surfaced to the user.
func NewTransportError(err error) *AppError {
	return &AppError{Code: CodeTransport, Message: "Network request failed", Err: err}
}

// NewServerError carries a server-rejected request's message verbatim when
// the response body provided one.
func NewServerError(message string) *AppError {
	if message == "" {
		message = "Something went wrong. Please try again."
	}
	return &AppError{Code: CodeServer, Message: message}
}

// ErrorCode extracts the AppError code from err, or "" if err is not an
// AppError.
func ErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return ErrorCode(err) == CodeValidation
}

// UserMessage returns the message suitable for a toast or banner.
func UserMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Something went wrong. Please try again."
}
