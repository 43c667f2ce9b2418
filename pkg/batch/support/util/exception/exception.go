// Package exception provides the error types shared by the backup/restore engine.
// It distinguishes fatal precondition failures, which abort a step before any
// catalog mutation, from per-resource catalog errors that the validation policy
// either propagates or downgrades to warnings.
package exception

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// ErrPrecondition marks errors raised when a step cannot be set up at all
// (no catalog bound to the run, no serializer, an unparseable filter).
var ErrPrecondition = errors.New("precondition failed")

// ErrCatalogValidation marks errors raised for an individual catalog resource.
var ErrCatalogValidation = errors.New("catalog validation failed")

// BatchError is an error raised by a module of the engine.
// It holds the module where the error occurred, a message, the wrapped original error,
// and flags indicating whether it is retryable or skippable.
type BatchError struct {
	// Module indicates the module where the error occurred (e.g., "resolver", "policy", "config").
	Module string
	// Message is a concise description of the error.
	Message string
	// OriginalErr is the wrapped original error.
	OriginalErr error
	isRetryable bool
	isSkippable bool
	// StackTrace is the stack trace at the time of the error (for debugging).
	StackTrace string
}

// NewBatchError creates a new BatchError instance.
// module: The module where the error occurred.
// message: The error message.
// originalErr: The original error to wrap.
// isSkippable: Whether this error is skippable.
// isRetryable: Whether this error is retryable.
func NewBatchError(module, message string, originalErr error, isSkippable, isRetryable bool) *BatchError {
	return &BatchError{
		Module:      module,
		Message:     message,
		OriginalErr: originalErr,
		isRetryable: isRetryable,
		isSkippable: isSkippable,
		StackTrace:  captureStack(),
	}
}

// NewBatchErrorf creates a new BatchError using a format string.
// A trailing error argument, if present, becomes the wrapped original error;
// the remaining arguments are passed to fmt.Sprintf. The result is neither
// skippable nor retryable.
//
// Example:
// NewBatchErrorf("catalog", "store %q references unknown workspace %q", "sf", "nope", ErrUnresolved)
func NewBatchErrorf(module, format string, a ...interface{}) *BatchError {
	var originalErr error
	args := a
	if len(args) > 0 {
		if err, ok := args[len(args)-1].(error); ok {
			originalErr = err
			args = args[:len(args)-1]
		}
	}
	return NewBatchError(module, fmt.Sprintf(format, args...), originalErr, false, false)
}

// NewPreconditionError creates a fatal BatchError that matches ErrPrecondition.
// Precondition errors are never recorded as per-resource failures; they abort
// the step before any processing happens.
func NewPreconditionError(module, message string, cause error) *BatchError {
	wrapped := ErrPrecondition
	if cause != nil {
		wrapped = errors.Join(ErrPrecondition, cause)
	}
	return NewBatchError(module, message, wrapped, false, false)
}

func captureStack() string {
	buf := make([]byte, 2048)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.OriginalErr != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.OriginalErr)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the original error for errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.OriginalErr
}

// IsRetryable returns whether this error is retryable.
func (e *BatchError) IsRetryable() bool {
	return e.isRetryable
}

// IsSkippable returns whether this error is skippable.
func (e *BatchError) IsSkippable() bool {
	return e.isSkippable
}

// IsBatchError determines if the given error is, or wraps, a BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}

// IsFatal determines if an error is fatal (cannot be retried or skipped).
// If it's a BatchError, its flags take precedence.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var be *BatchError
	if errors.As(err, &be) {
		return !be.IsRetryable() && !be.IsSkippable()
	}
	errStr := err.Error()
	return strings.Contains(errStr, "invalid argument") ||
		strings.Contains(errStr, "permission denied") ||
		strings.Contains(errStr, "data corruption")
}

// IsPrecondition reports whether err is a step setup failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrPrecondition)
}

// CatalogError wraps a failure raised for a single catalog resource.
// It always matches ErrCatalogValidation through errors.Is.
type CatalogError struct {
	Message string
	Cause   error
}

// NewCatalogError wraps cause as a catalog error.
func NewCatalogError(cause error) *CatalogError {
	return &CatalogError{Cause: cause}
}

// NewInvalidResourceError creates a catalog error for a resource that failed without a cause.
func NewInvalidResourceError(resource interface{}) *CatalogError {
	return &CatalogError{Message: fmt.Sprintf("Invalid resource: %v", resource)}
}

// Error implements the error interface.
func (e *CatalogError) Error() string {
	switch {
	case e.Cause != nil && e.Message != "":
		return e.Message + ": " + e.Cause.Error()
	case e.Cause != nil:
		return e.Cause.Error()
	default:
		return e.Message
	}
}

// Unwrap exposes both the sentinel and the cause to errors.Is / errors.As.
func (e *CatalogError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrCatalogValidation}
	}
	return []error{ErrCatalogValidation, e.Cause}
}

// ExtractErrorMessage extracts the error message string from an error.
// For BatchError, it returns the cleaner Message field.
// Otherwise, it returns the standard Error() string.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if be, ok := err.(*BatchError); ok {
		return be.Message
	}
	return err.Error()
}
