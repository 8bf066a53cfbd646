package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrDisposed", ErrDisposed, "resource is disposed"},
		{"ErrAlreadyAssigned", ErrAlreadyAssigned, "disposable already assigned"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrEmptySequence", ErrEmptySequence, "sequence contains no elements"},
		{"ErrCanceled", ErrCanceled, "operation canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrCanceledMatchesContextCanceled(t *testing.T) {
	if !errors.Is(ErrCanceled, context.Canceled) {
		t.Error("ErrCanceled should match context.Canceled")
	}
	if !errors.Is(fmt.Errorf("wrapped: %w", ErrCanceled), context.Canceled) {
		t.Error("wrapped ErrCanceled should match context.Canceled")
	}
	if errors.Is(ErrCanceled, context.DeadlineExceeded) {
		t.Error("ErrCanceled should not match context.DeadlineExceeded")
	}
}

func TestIsCanceled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"ErrCanceled", ErrCanceled, true},
		{"context.Canceled", context.Canceled, true},
		{"wrapped context.Canceled", fmt.Errorf("unit: %w", context.Canceled), true},
		{"deadline", context.DeadlineExceeded, false},
		{"plain", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCanceled(tt.err); got != tt.want {
				t.Errorf("IsCanceled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "dispatch",
				Field:  "max_concurrency",
				Value:  -1,
				Reason: "cannot be negative",
			},
			want: "dispatch: invalid max_concurrency=-1 (cannot be negative)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "dispatch",
				Field:  "strategy",
				Value:  9,
				Reason: "unknown strategy",
				Hint:   "use sequential, drop or parallel",
			},
			want: "dispatch: invalid strategy=9 (unknown strategy) - use sequential, drop or parallel",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "timing",
				Field:  "cron",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "timing: invalid cron= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")

	if verr.Unwrap() != ErrInvalidConfiguration {
		t.Errorf("Unwrap() = %v, want ErrInvalidConfiguration", verr.Unwrap())
	}
	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("test", "field", 0, "invalid").
		WithHint("try using a positive value")

	if err.Hint != "try using a positive value" {
		t.Errorf("Hint = %q, want %q", err.Hint, "try using a positive value")
	}

	// Should return same instance for chaining
	if result := err.WithHint("new hint"); result != err {
		t.Error("WithHint should return the same instance")
	}
}

func TestOperationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOperationError("bridge", "Publish", cause).WithContext("channel=orders")

	want := "bridge.Publish failed: connection refused (channel=orders)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("OperationError should wrap the cause error")
	}

	bare := NewOperationError("bridge", "Publish", cause)
	if got := bare.Error(); got != "bridge.Publish failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation error", NewValidationError("test", "field", 0, "test"), true},
		{"wrapped validation error", &OperationError{Cause: NewValidationError("test", "field", 0, "test")}, true},
		{"operation error", &OperationError{Cause: errors.New("test")}, false},
		{"standard error", errors.New("test"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidationError(tt.err); got != tt.want {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPanicError(t *testing.T) {
	var perr *PanicError
	func() {
		defer func() {
			perr = NewPanicError(recover())
		}()
		panic("boom")
	}()

	if perr.Value != "boom" {
		t.Errorf("Value = %v, want boom", perr.Value)
	}
	if !strings.Contains(perr.Error(), "panic: boom") {
		t.Errorf("Error() = %q, want panic prefix", perr.Error())
	}
	if perr.Stack == "" {
		t.Error("Stack should be captured")
	}
	if perr.Unwrap() != nil {
		t.Error("non-error panic value should unwrap to nil")
	}

	cause := errors.New("inner")
	if !errors.Is(&PanicError{Value: cause}, cause) {
		t.Error("error panic value should be reachable with errors.Is")
	}
}

func TestHandleUnhandled(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []error
	)
	SetUnhandledHandler(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, err)
	})
	defer SetUnhandledHandler(nil)

	boom := errors.New("boom")
	HandleUnhandled(boom)
	HandleUnhandled(nil)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 1 || seen[0] != boom {
		t.Fatalf("seen = %v, want [boom]", seen)
	}
}

func TestHandleUnhandled_PanickingHandler(t *testing.T) {
	SetUnhandledHandler(func(error) { panic("handler bug") })
	defer SetUnhandledHandler(nil)

	// Must not propagate the handler's panic.
	HandleUnhandled(errors.New("boom"))
}
