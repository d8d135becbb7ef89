// Package apperror defines the application error taxonomy and its
// mapping to HTTP status codes, so handlers can translate any error
// coming out of the service layer into a contractual response.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an application error.
type ErrorType int

const (
	// UnknownError is for unspecified errors.
	UnknownError ErrorType = iota
	// ValidationError represents an input validation failure.
	ValidationError
	// NotFoundError represents a missing (or not owned) resource,
	// including malformed resource identifiers.
	NotFoundError
	// UnauthorizedError represents a missing, invalid or revoked token.
	UnauthorizedError
	// ConflictError represents a uniqueness conflict (duplicate email).
	ConflictError
	// StoreError represents a backing persistence failure.
	StoreError
	// InternalError represents an unexpected server-side failure.
	InternalError
)

// AppError is the application error type. It wraps an optional
// underlying error for debugging while exposing only Message to clients.
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error satisfies the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode returns the HTTP status code for the error type.
// Conflicts and store failures surface as 400 per the API contract.
func (e *AppError) StatusCode() int {
	switch e.Type {
	case ValidationError, ConflictError, StoreError:
		return http.StatusBadRequest
	case NotFoundError:
		return http.StatusNotFound
	case UnauthorizedError:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new AppError with the given type.
func New(errType ErrorType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string, err error) *AppError {
	return New(ValidationError, message, err)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(message string, err error) *AppError {
	return New(NotFoundError, message, err)
}

// NewUnauthorizedError creates an UnauthorizedError.
func NewUnauthorizedError(message string, err error) *AppError {
	return New(UnauthorizedError, message, err)
}

// NewConflictError creates a ConflictError.
func NewConflictError(message string, err error) *AppError {
	return New(ConflictError, message, err)
}

// NewStoreError creates a StoreError.
func NewStoreError(message string, err error) *AppError {
	return New(StoreError, message, err)
}

// NewInternalError creates an InternalError.
func NewInternalError(message string, err error) *AppError {
	return New(InternalError, message, err)
}

// ErrorResponse is the JSON error payload returned to API clients.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ToResponse converts the error to its client-facing payload. Only the
// message is exposed, never the underlying error.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: e.Message}
}

// FromError extracts an *AppError from an error chain.
func FromError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool { return isType(err, ValidationError) }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool { return isType(err, NotFoundError) }

// IsUnauthorized reports whether err is an UnauthorizedError.
func IsUnauthorized(err error) bool { return isType(err, UnauthorizedError) }

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool { return isType(err, ConflictError) }

// IsStore reports whether err is a StoreError.
func IsStore(err error) bool { return isType(err, StoreError) }
