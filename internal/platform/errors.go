package platform

import (
	"errors"
	"fmt"
)

// ErrorCode classifies automation failures. The set is flat and shared by
// all three backends so callers can branch without knowing which OS they
// are on.
type ErrorCode string

const (
	// ErrCodeUnsupportedOperation marks a capability gap on the current
	// backend. It is an expected outcome, not a bug.
	ErrCodeUnsupportedOperation ErrorCode = "UNSUPPORTED_OPERATION"

	// ErrCodePlatform marks a failed native call. The message always
	// carries the native error text.
	ErrCodePlatform ErrorCode = "PLATFORM_ERROR"

	// ErrCodeInvalidArgument marks bad caller input, such as a malformed
	// selector or an unknown scroll direction.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// ErrCodeElementNotFound marks a search that exhausted its timeout.
	ErrCodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"

	// ErrCodeTimeout marks an operation whose own deadline elapsed.
	ErrCodeTimeout ErrorCode = "TIMEOUT"

	// ErrCodeUnsupportedPlatform means no engine exists for the host OS.
	ErrCodeUnsupportedPlatform ErrorCode = "UNSUPPORTED_PLATFORM"
)

// Error is the typed error returned by every engine operation.
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

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so errors.Is(err, &Error{Code: c}) works with
// sentinel targets.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a typed error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause attaches the underlying error and returns the same *Error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Errorf creates a typed error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// UnsupportedOperation builds the capability-gap error for an operation.
func UnsupportedOperation(op string) *Error {
	return Errorf(ErrCodeUnsupportedOperation, "%s is not supported on this platform", op)
}

// PlatformError wraps a native failure, preserving the native error text.
func PlatformError(message string, cause error) *Error {
	return &Error{Code: ErrCodePlatform, Message: message, Cause: cause}
}

// InvalidArgument builds a bad-input error.
func InvalidArgument(message string) *Error {
	return NewError(ErrCodeInvalidArgument, message)
}

// ElementNotFound builds a search-exhausted error.
func ElementNotFound(message string) *Error {
	return NewError(ErrCodeElementNotFound, message)
}

// TimeoutError builds a deadline-elapsed error.
func TimeoutError(message string) *Error {
	return NewError(ErrCodeTimeout, message)
}

// CodeOf extracts the ErrorCode from err, unwrapping as needed. Errors
// outside the taxonomy report as ErrCodePlatform.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodePlatform
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
