package errors

import (
	"context"
	"errors"
	"fmt"
	"runtime"
)

// Common error types used across the rxflow library

var (
	// ErrDisposed indicates that an operation was attempted on a disposed resource
	ErrDisposed = errors.New("resource is disposed")

	// ErrAlreadyAssigned indicates that a single-assignment slot was set twice
	ErrAlreadyAssigned = errors.New("disposable already assigned")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrEmptySequence indicates that a sequence completed without producing
	// a value required by the aggregation
	ErrEmptySequence = errors.New("sequence contains no elements")

	// ErrCanceled indicates that a pending result was canceled before it resolved.
	// It matches context.Canceled with errors.Is.
	ErrCanceled error = canceledError{}
)

type canceledError struct{}

func (canceledError) Error() string { return "operation canceled" }

func (canceledError) Is(target error) bool { return target == context.Canceled }

// IsCanceled reports whether err denotes cancellation rather than failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrCanceled)
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ValidationError describes a rejected construction-time parameter.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for module.field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same instance.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap returns ErrInvalidConfiguration so callers can match any validation failure.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps a failure raised while a component performed an operation.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches free-form context and returns the same instance.
func (e *OperationError) WithContext(detail string) *OperationError {
	e.Context = detail
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// PanicError wraps a value recovered from a panic together with the stack
// of the panicking goroutine.
type PanicError struct {
	// Value is the original value passed to panic().
	Value interface{}

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

// NewPanicError captures the current goroutine stack for a recovered value.
// Call it from the deferred function that recovered.
func NewPanicError(v interface{}) *PanicError {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v\n\n%s", e.Value, e.Stack)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
