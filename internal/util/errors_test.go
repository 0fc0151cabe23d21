package util

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

var errExit = errors.New("renderer exited with code 1")

func TestWrapItemError(t *testing.T) {
	if WrapItemError("flow.mmd", nil) != nil {
		t.Fatal("wrapping nil must stay nil")
	}

	err := WrapItemError("docs/flow.mmd", errExit)
	if got, want := err.Error(), "docs/flow.mmd: renderer exited with code 1"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, errExit) {
		t.Error("the wrapped error should stay reachable")
	}

	var item *ItemError
	if !errors.As(fmt.Errorf("batch: %w", err), &item) || item.ID != "docs/flow.mmd" {
		t.Errorf("errors.As did not find the item id in %v", err)
	}
}

func TestMultiError_Error(t *testing.T) {
	numbered := func(n int) []error {
		errs := make([]error, n)
		for i := range errs {
			errs[i] = fmt.Errorf("e%d", i+1)
		}
		return errs
	}

	tests := []struct {
		name string
		errs []error
		want string
	}{
		{name: "empty", want: "no errors"},
		{name: "single error is passed through", errs: []error{errExit}, want: errExit.Error()},
		{name: "nils are dropped", errs: []error{nil, errExit, nil}, want: errExit.Error()},
		{
			name: "numbered list",
			errs: numbered(3),
			want: "3 items failed:\n  1. e1\n  2. e2\n  3. e3",
		},
		{
			name: "list is capped",
			errs: numbered(maxListedErrors + 2),
			want: "12 items failed:\n  1. e1\n  2. e2\n  3. e3\n  4. e4\n  5. e5\n  6. e6\n  7. e7\n  8. e8\n  9. e9\n  10. e10\n  ... and 2 more",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewMultiError(tt.errs).Error(); got != tt.want {
				t.Errorf("Error() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestMultiError_Collect(t *testing.T) {
	var m MultiError
	if m.ErrorOrNil() != nil {
		t.Fatal("an empty MultiError should collapse to nil")
	}

	m.Add(nil)
	m.Add(errExit)
	m.Add(WrapItemError("b.mmd", ErrTimeout))

	if len(m.Errors) != 2 {
		t.Fatalf("expected 2 collected errors, got %d", len(m.Errors))
	}
	if err := m.ErrorOrNil(); err != &m {
		t.Errorf("ErrorOrNil() = %v, want the MultiError itself", err)
	}
	if !errors.Is(&m, errExit) || !IsTimeout(&m) {
		t.Error("errors.Is should search every collected error")
	}

	var item *ItemError
	if !errors.As(&m, &item) || item.ID != "b.mmd" {
		t.Errorf("errors.As should find the item error, got %v", item)
	}
}

func TestCombineErrors(t *testing.T) {
	if err := CombineErrors(); err != nil {
		t.Errorf("CombineErrors() = %v, want nil", err)
	}
	if err := CombineErrors(nil, nil); err != nil {
		t.Errorf("CombineErrors(nil, nil) = %v, want nil", err)
	}

	err := CombineErrors(errExit, nil, ErrCancelled)
	var m *MultiError
	if !errors.As(err, &m) || len(m.Errors) != 2 {
		t.Fatalf("expected a MultiError of 2, got %#v", err)
	}
	if !IsCancelled(err) {
		t.Error("combined error should match ErrCancelled")
	}
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		err  *ValidationError
		want string
	}{
		{
			err:  NewValidationError("maxConcurrency", -1, "must be positive"),
			want: `validation failed for field "maxConcurrency" (value: -1): must be positive`,
		},
		{
			err:  NewValidationError("executable", nil, "must not be empty"),
			want: `validation failed for field "executable": must not be empty`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.err.Field, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}

			wrapped := fmt.Errorf("invalid render configuration: %w", tt.err)
			if !errors.Is(wrapped, ErrInvalidConfig) {
				t.Error("validation errors should match ErrInvalidConfig")
			}
			var verr *ValidationError
			if !errors.As(wrapped, &verr) || verr.Field != tt.err.Field {
				t.Errorf("errors.As lost the field: %v", verr)
			}
		})
	}
}

func TestIsTimeoutAndIsCancelled(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantTimeout   bool
		wantCancelled bool
	}{
		{name: "nil"},
		{name: "timeout", err: ErrTimeout, wantTimeout: true},
		{name: "wrapped timeout", err: fmt.Errorf("render: %w", ErrTimeout), wantTimeout: true},
		{name: "cancelled", err: ErrCancelled, wantCancelled: true},
		{name: "item cancelled", err: WrapItemError("flow.mmd", ErrCancelled), wantCancelled: true},
		{name: "unrelated", err: errExit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.wantTimeout {
				t.Errorf("IsTimeout() = %v, want %v", got, tt.wantTimeout)
			}
			if got := IsCancelled(tt.err); got != tt.wantCancelled {
				t.Errorf("IsCancelled() = %v, want %v", got, tt.wantCancelled)
			}
		})
	}
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{name: "nil", err: nil, contains: ""},
		{name: "timeout", err: ErrTimeout, contains: "--timeout"},
		{name: "cancelled", err: ErrCancelled, contains: "cancelled"},
		{
			name:     "renderer not found",
			err:      fmt.Errorf("failed to start mmdc: %w", ErrRendererNotFound),
			contains: "npm install -g @mermaid-js/mermaid-cli",
		},
		{name: "invalid config", err: ErrInvalidConfig, contains: "Invalid configuration"},
		{name: "validation error", err: NewValidationError("timeout", -1, "must be positive"), contains: "Invalid configuration"},
		{name: "no inputs", err: fmt.Errorf("%w in [docs]", ErrNoInputs), contains: "No diagram sources"},
		{
			name:     "batch of failures",
			err:      CombineErrors(WrapItemError("a.mmd", ErrTimeout), WrapItemError("b.mmd", ErrTimeout)),
			contains: "2 items failed",
		},
		{
			name:     "single failure keeps its hint",
			err:      CombineErrors(WrapItemError("a.mmd", ErrTimeout)),
			contains: "timed out",
		},
		{name: "unknown error", err: errExit, contains: errExit.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := FriendlyError(tt.err)
			if tt.contains == "" {
				if msg != "" {
					t.Errorf("expected empty message, got %q", msg)
				}
				return
			}
			if !strings.Contains(msg, tt.contains) {
				t.Errorf("FriendlyError() = %q, want it to contain %q", msg, tt.contains)
			}
		})
	}
}
