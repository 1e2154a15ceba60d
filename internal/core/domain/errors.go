// Package domain defines the core domain models for TokVault.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
type DomainError struct {
	Code    string // Error code (e.g., "TV-STOR-5001")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Storage Errors (STOR)
// ============================================================================

var (
	// ErrStorageOpen indicates the backing store could not be opened or
	// reached at startup. The process must not continue.
	ErrStorageOpen = NewDomainError("TV-STOR-5030", "storage unavailable")

	// ErrStorageWrite indicates a persist or flush failed. The in-memory
	// vault is left as it was before the call.
	ErrStorageWrite = NewDomainError("TV-STOR-5001", "storage write failed")

	// ErrDeserialization indicates persisted state could not be decoded.
	// Only raised at load time, where it degrades to an empty vault.
	ErrDeserialization = NewDomainError("TV-STOR-4220", "persisted vault unreadable")
)

// ============================================================================
// Token Errors (TOKN)
// ============================================================================

var (
	// ErrTokenSpaceExhausted indicates every mint attempt collided with a
	// token already assigned in the vault.
	ErrTokenSpaceExhausted = NewDomainError("TV-TOKN-5070", "token space exhausted")

	// ErrTokenUnknown indicates a token has no word in the vault.
	// Only returned under the strict detokenize policy.
	ErrTokenUnknown = NewDomainError("TV-TOKN-4040", "unknown token")

	// ErrVaultInconsistent indicates the two vault maps disagree.
	ErrVaultInconsistent = NewDomainError("TV-TOKN-5090", "vault maps inconsistent")
)

// ============================================================================
// System Errors (SYS)
// ============================================================================

var (
	// ErrInternalServer indicates an internal server error.
	ErrInternalServer = NewDomainError("TV-SYS-5000", "internal server error")

	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewDomainError("TV-SYS-4000", "bad request")

	// ErrUnauthorized indicates a missing or wrong API key.
	ErrUnauthorized = NewDomainError("TV-SYS-4010", "unauthorized")

	// ErrRateLimited indicates too many requests.
	ErrRateLimited = NewDomainError("TV-SYS-4290", "too many requests")

	// ErrNotImplemented indicates the operation is not supported by the
	// configured backend.
	ErrNotImplemented = NewDomainError("TV-SYS-5010", "not supported by backend")

	// ErrNotReady indicates the vault has not been loaded yet.
	ErrNotReady = NewDomainError("TV-SYS-5030", "vault not loaded")
)

// ============================================================================
// Argument Errors (ARG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError("TV-ARG-1001", "invalid argument")

	// ErrMissingArgument indicates a required argument is missing.
	ErrMissingArgument = NewDomainError("TV-ARG-1002", "missing required argument")
)
