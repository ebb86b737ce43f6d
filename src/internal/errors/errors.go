// Package errors provides domain-specific error types for keen-ipmon.
//
// Errors carry a code from the reconciliation failure taxonomy. None of them
// abort a reconciliation pass: callers log the error, count it and exclude
// the offending service, route or resolver.
package errors

import "fmt"

// ErrorCode represents a category of error that can occur in the application.
type ErrorCode string

const (
	// ErrCodeConfigNotFound indicates an absent store entity. It is not a failure.
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"

	// ErrCodeMalformedEntity indicates a store entity with the wrong shape.
	ErrCodeMalformedEntity ErrorCode = "MALFORMED_ENTITY"

	// ErrCodeInterfaceResolution indicates a failed interface name/index lookup.
	ErrCodeInterfaceResolution ErrorCode = "INTERFACE_RESOLUTION"

	// ErrCodeRouteApply indicates the kernel rejected a route change.
	ErrCodeRouteApply ErrorCode = "ROUTE_APPLY"

	// ErrCodeSignature indicates a published configuration could not be signed.
	ErrCodeSignature ErrorCode = "SIGNATURE"

	// ErrCodeConfig indicates a daemon configuration error.
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"

	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Error represents a domain-specific error with an error code and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error for errors.Is and errors.As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target error code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a new domain error with the specified code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a new domain error wrapping an existing error.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Sentinels for errors.Is comparisons by code.
var (
	ErrConfigNotFound      = New(ErrCodeConfigNotFound, "")
	ErrMalformedEntity     = New(ErrCodeMalformedEntity, "")
	ErrInterfaceResolution = New(ErrCodeInterfaceResolution, "")
	ErrRouteApply          = New(ErrCodeRouteApply, "")
	ErrSignature           = New(ErrCodeSignature, "")
	ErrConfig              = New(ErrCodeConfig, "")
)

// NewConfigNotFoundError reports an absent entity.
func NewConfigNotFoundError(message string) *Error {
	return New(ErrCodeConfigNotFound, message)
}

// NewMalformedEntityError reports an entity that failed validation.
func NewMalformedEntityError(message string, cause error) *Error {
	return Wrap(ErrCodeMalformedEntity, message, cause)
}

// NewInterfaceResolutionError reports a failed interface lookup.
func NewInterfaceResolutionError(message string, cause error) *Error {
	return Wrap(ErrCodeInterfaceResolution, message, cause)
}

// NewRouteApplyError reports a route the kernel rejected.
func NewRouteApplyError(message string, cause error) *Error {
	return Wrap(ErrCodeRouteApply, message, cause)
}

// NewSignatureError reports a failed configuration signature.
func NewSignatureError(message string, cause error) *Error {
	return Wrap(ErrCodeSignature, message, cause)
}

// NewConfigError creates a new configuration error.
func NewConfigError(message string, cause error) *Error {
	return Wrap(ErrCodeConfig, message, cause)
}

// NewInternalError creates a new internal error.
func NewInternalError(message string, cause error) *Error {
	return Wrap(ErrCodeInternal, message, cause)
}
