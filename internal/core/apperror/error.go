// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes grouped by concern
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation  = "VALIDATION_ERROR"
	CodeMalformedID = "MALFORMED_ID"

	// Authentication errors (401)
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAuthRequired       = "AUTH_REQUIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeTokenRevoked       = "TOKEN_REVOKED"

	// Authorization errors (403)
	CodeForbidden = "FORBIDDEN"

	// Reference and lookup errors (400, 404)
	CodeInvalidReference = "INVALID_REFERENCE"
	CodeOtpInvalid       = "OTP_INVALID"
	CodeNotFound         = "NOT_FOUND"

	// Conflict (409)
	CodeConflict               = "CONFLICT"
	CodeDuplicate              = "DUPLICATE_ENTRY"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, ids, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewMalformedID is returned when an identifier fails format validation
// before any lookup is attempted.
func NewMalformedID(value string) *AppError {
	return &AppError{
		Code:       CodeMalformedID,
		Message:    "malformed identifier",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"id": value},
	}
}

// NewInvalidCredentials creates the single login failure error (401).
// Wrong password and unknown/disabled/deleted account must be
// indistinguishable, so every login failure path returns exactly this error.
func NewInvalidCredentials() *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    "invalid username or password",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewAuthRequired creates an error for a missing or expired access token (401).
func NewAuthRequired(message string) *AppError {
	return &AppError{
		Code:       CodeAuthRequired,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewTokenInvalid creates an error for a malformed or tampered token (401).
func NewTokenInvalid(message string) *AppError {
	return &AppError{
		Code:       CodeTokenInvalid,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewTokenRevoked is returned when a refresh token no longer matches the
// stored fingerprint (logout or rotation).
func NewTokenRevoked() *AppError {
	return &AppError{
		Code:       CodeTokenRevoked,
		Message:    "refresh token revoked",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewInvalidReference is returned when a referenced role/permission id does
// not resolve to an existing record.
func NewInvalidReference(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeInvalidReference,
		Message:    fmt.Sprintf("referenced %s does not exist", entity),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewOtpInvalid covers both a wrong code and an expired one; the caller must
// not be able to tell which.
func NewOtpInvalid() *AppError {
	return &AppError{
		Code:       CodeOtpInvalid,
		Message:    "code is invalid or has expired",
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode checks if error carries the given machine code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsTokenRevoked checks if error is CodeTokenRevoked
func IsTokenRevoked(err error) bool {
	return HasCode(err, CodeTokenRevoked)
}
