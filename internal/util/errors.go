package util

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels shared by the renderer, the pool and the CLI. Render failures
// match them through errors.Is.
var (
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrTimeout          = errors.New("operation timed out")
	ErrCancelled        = errors.New("operation cancelled")
	ErrRendererNotFound = errors.New("renderer not found")
	ErrNoInputs         = errors.New("no inputs found")
)

// ItemError tags an error with the ID of the batch item that produced it
type ItemError struct {
	ID  string
	Err error
}

func (e *ItemError) Error() string { return e.ID + ": " + e.Err.Error() }

func (e *ItemError) Unwrap() error { return e.Err }

// WrapItemError returns nil for a nil err
func WrapItemError(id string, err error) error {
	if err == nil {
		return nil
	}
	return &ItemError{ID: id, Err: err}
}

// maxListedErrors caps how many failures MultiError spells out
const maxListedErrors = 10

// MultiError collects the failures of a batch. errors.Is and errors.As look
// through every collected error.
type MultiError struct {
	Errors []error
}

// Error lists the failures, one per line
func (m *MultiError) Error() string {
	switch len(m.Errors) {
	case 0:
		return "no errors"
	case 1:
		return m.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d items failed:", len(m.Errors))
	for i, err := range m.Errors[:min(len(m.Errors), maxListedErrors)] {
		fmt.Fprintf(&sb, "\n  %d. %v", i+1, err)
	}
	if rest := len(m.Errors) - maxListedErrors; rest > 0 {
		fmt.Fprintf(&sb, "\n  ... and %d more", rest)
	}
	return sb.String()
}

// Unwrap returns the collected errors
func (m *MultiError) Unwrap() []error {
	return m.Errors
}

// Add appends err unless it is nil
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// ErrorOrNil returns m, or nil when nothing was collected
func (m *MultiError) ErrorOrNil() error {
	if len(m.Errors) == 0 {
		return nil
	}
	return m
}

// NewMultiError collects the non-nil errors of errs
func NewMultiError(errs []error) *MultiError {
	m := &MultiError{Errors: make([]error, 0, len(errs))}
	for _, err := range errs {
		m.Add(err)
	}
	return m
}

// ValidationError reports a rejected configuration field.
// It matches ErrInvalidConfig with errors.Is.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (v *ValidationError) Error() string {
	field := fmt.Sprintf("field %q", v.Field)
	if v.Value != nil {
		field += fmt.Sprintf(" (value: %v)", v.Value)
	}
	return "validation failed for " + field + ": " + v.Message
}

func (v *ValidationError) Unwrap() error { return ErrInvalidConfig }

func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// FriendlyError turns err into a hint for the person running the command
func FriendlyError(err error) string {
	if err == nil {
		return ""
	}

	// Each item of a batch was already reported on its own
	var multi *MultiError
	if errors.As(err, &multi) && len(multi.Errors) > 1 {
		return fmt.Sprintf("%d items failed. The individual failures are listed above.", len(multi.Errors))
	}

	switch {
	case IsTimeout(err):
		return "Rendering timed out. Increase the timeout with the --timeout flag or simplify the diagram."
	case IsCancelled(err):
		return "Operation was cancelled."
	case errors.Is(err, ErrRendererNotFound):
		return "Mermaid CLI could not be started. Install it with 'npm install -g @mermaid-js/mermaid-cli' or point --executable at mmdc."
	case errors.Is(err, ErrInvalidConfig):
		return "Invalid configuration. Please check your config file and command-line flags."
	case errors.Is(err, ErrNoInputs):
		return "No diagram sources found. Please check the paths you passed."
	default:
		return err.Error()
	}
}

// CombineErrors returns a *MultiError of the non-nil errs, or nil if there are none
func CombineErrors(errs ...error) error {
	return NewMultiError(errs).ErrorOrNil()
}
