package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a portfolio error code.
type ErrorCode string

const (
	ErrInvalidRequest ErrorCode = "INVALID_REQUEST" // 400
	ErrUnauthorized   ErrorCode = "UNAUTHORIZED"    // 401
	ErrNotFound       ErrorCode = "NOT_FOUND"       // 404
	ErrInternal       ErrorCode = "INTERNAL"        // 500
	ErrUnavailable    ErrorCode = "UNAVAILABLE"     // 503
)

// PortfolioError represents a structured error with code, status, and details.
type PortfolioError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PortfolioError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *PortfolioError {
	return &PortfolioError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewInvalidField creates a 400 error naming the offending parameter.
func NewInvalidField(field, value string) *PortfolioError {
	return &PortfolioError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: fmt.Sprintf("invalid %s: %q", field, value),
		Details: map[string]any{"field": field, "value": value},
	}
}

// NewUnauthorized creates a 401 error.
func NewUnauthorized() *PortfolioError {
	return &PortfolioError{
		Code:    ErrUnauthorized,
		Status:  401,
		Message: "authentication required",
	}
}

// NewNotFound creates a 404 error for a missing resource.
func NewNotFound(what string) *PortfolioError {
	return &PortfolioError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", what),
		Details: map[string]any{"identifier": what},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *PortfolioError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &PortfolioError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// NewUnavailable creates a 503 error for a dependency that is not configured.
func NewUnavailable(what string) *PortfolioError {
	return &PortfolioError{
		Code:    ErrUnavailable,
		Status:  503,
		Message: fmt.Sprintf("%s unavailable", what),
	}
}

// Is checks if an error is (or wraps) a PortfolioError with the given code.
func Is(err error, code ErrorCode) bool {
	var pErr *PortfolioError
	if stderrors.As(err, &pErr) {
		return pErr.Code == code
	}
	return false
}

// StatusOf returns the HTTP status carried by err, or 500 for any other error.
func StatusOf(err error) int {
	var pErr *PortfolioError
	if stderrors.As(err, &pErr) {
		return pErr.Status
	}
	return 500
}
