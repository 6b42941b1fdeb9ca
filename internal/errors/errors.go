// Package errors provides the typed error system used across the backend.
// Every error carries a type for classification, a stable code for
// programmatic handling, and an optional underlying cause.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines the category of error for proper handling and response.
type ErrorType string

const (
	// ErrorTypeConnection marks backend-unreachable and timeout failures.
	// These are non-fatal: callers degrade to pass-through behavior.
	ErrorTypeConnection ErrorType = "CONNECTION"

	// ErrorTypeSerialization marks payload encode/decode failures.
	// The cache layer treats these as misses and never surfaces them.
	ErrorTypeSerialization ErrorType = "SERIALIZATION"

	// ErrorTypeCompute marks failures of a supplied compute callback.
	// This is the only category that reaches the ultimate caller.
	ErrorTypeCompute ErrorType = "COMPUTE"

	// ErrorTypeValidation marks invalid input or configuration.
	ErrorTypeValidation ErrorType = "VALIDATION"

	// ErrorTypeTimeout marks operations that exceeded their deadline.
	ErrorTypeTimeout ErrorType = "TIMEOUT"

	// ErrorTypeInternal marks unexpected internal failures.
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// ErrorSeverity defines the severity level for logging and monitoring.
type ErrorSeverity string

const (
	SeverityLow      ErrorSeverity = "LOW"
	SeverityMedium   ErrorSeverity = "MEDIUM"
	SeverityHigh     ErrorSeverity = "HIGH"
	SeverityCritical ErrorSeverity = "CRITICAL"
)

// Error is the single error type used by the caching subsystem.
type Error struct {
	Type      ErrorType     `json:"type"`
	Code      string        `json:"code"`
	Message   string        `json:"message"`
	Operation string        `json:"operation,omitempty"`
	Resource  string        `json:"resource,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Retryable bool          `json:"retryable"`
	Cause     error         `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("[%s:%s] %s: %s", e.Type, e.Code, e.Operation, e.Message)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Type, e.Code, e.Message)
}

// Unwrap allows errors.Is and errors.As to reach the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithResource attaches the resource (usually a cache key or pattern) to the error.
func (e *Error) WithResource(resource string) *Error {
	e.Resource = resource
	return e
}

// NewConnectionError creates an error for an unreachable or timed-out backend.
func NewConnectionError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeConnection,
		Code:      "CACHE_BACKEND_UNAVAILABLE",
		Message:   "cache backend unreachable",
		Operation: operation,
		Severity:  SeverityMedium,
		Retryable: true,
		Cause:     cause,
	}
}

// NewSerializationError creates an error for a payload that could not be
// encoded or decoded.
func NewSerializationError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeSerialization,
		Code:      "CACHE_PAYLOAD_INVALID",
		Message:   "cache payload could not be serialized",
		Operation: operation,
		Severity:  SeverityLow,
		Retryable: false,
		Cause:     cause,
	}
}

// NewComputeError wraps a failure of the caller-supplied compute callback.
// The cause is preserved verbatim so callers can inspect it.
func NewComputeError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeCompute,
		Code:      "COMPUTE_FAILED",
		Message:   "compute callback failed",
		Operation: operation,
		Severity:  SeverityHigh,
		Retryable: false,
		Cause:     cause,
	}
}

// NewValidationError creates an error for invalid input or configuration.
func NewValidationError(message string) *Error {
	return &Error{
		Type:      ErrorTypeValidation,
		Code:      "VALIDATION_FAILED",
		Message:   message,
		Severity:  SeverityLow,
		Retryable: false,
	}
}

// NewTimeoutError creates an error for an operation that exceeded its deadline.
func NewTimeoutError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeTimeout,
		Code:      "OPERATION_TIMEOUT",
		Message:   "operation timed out",
		Operation: operation,
		Severity:  SeverityMedium,
		Retryable: true,
		Cause:     cause,
	}
}

// NewInternalError creates an error for an unexpected internal failure.
func NewInternalError(operation string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeInternal,
		Code:      "INTERNAL_ERROR",
		Message:   "internal error",
		Operation: operation,
		Severity:  SeverityHigh,
		Retryable: false,
		Cause:     cause,
	}
}

// typeOf extracts the ErrorType of err, or "" when err is not an *Error.
func typeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// IsConnection reports whether err is a connection/unreachable-backend error.
func IsConnection(err error) bool {
	t := typeOf(err)
	return t == ErrorTypeConnection || t == ErrorTypeTimeout
}

// IsSerialization reports whether err is a serialization error.
func IsSerialization(err error) bool {
	return typeOf(err) == ErrorTypeSerialization
}

// IsCompute reports whether err originated from a compute callback.
func IsCompute(err error) bool {
	return typeOf(err) == ErrorTypeCompute
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return typeOf(err) == ErrorTypeValidation
}
