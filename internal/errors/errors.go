package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeNetwork  ErrorType = "NETWORK"
	ErrTypeNotFound ErrorType = "NOT_FOUND"
	ErrTypeArchive  ErrorType = "ARCHIVE"
	ErrTypeStorage  ErrorType = "STORAGE"
	ErrTypeConfig   ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// Helper functions for common error types

// NewNetworkError creates a network-related error. Network errors are
// retryable unless they carry a not-found status.
func NewNetworkError(message string, cause error) *AppError {
	return newAppError(ErrTypeNetwork, message, cause)
}

// NewNotFoundError creates a not found error for a remote resource. A
// not-found fetch is permanent and must not be retried.
func NewNotFoundError(resource string) *AppError {
	return newAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewArchiveError creates an archive-related error
func NewArchiveError(message string, cause error) *AppError {
	return newAppError(ErrTypeArchive, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return newAppError(ErrTypeStorage, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return newAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the error's type when it is (or wraps) an AppError,
// and an empty type otherwise.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

// IsNotFound reports whether the error chain contains a not-found error.
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrTypeNotFound
}

// IsRetryable reports whether a fetch failure may be retried. Not-found
// responses are permanent; everything else on the network path is treated
// as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsNotFound(err)
}
