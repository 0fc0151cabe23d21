package render

import (
	"errors"
	"fmt"

	"github.com/aryankumar/mermaidfleet/internal/util"
)

// Kind classifies why a render failed. The kinds are mutually exclusive.
type Kind string

const (
	// KindStart means the renderer process could not be spawned
	KindStart Kind = "StartFailure"

	// KindNonZeroExit means the renderer exited with a non-zero status
	KindNonZeroExit Kind = "NonZeroExit"

	// KindTimeout means the per-invocation timeout elapsed before the renderer exited
	KindTimeout Kind = "Timeout"

	// KindCancelled means the caller's context was cancelled before the renderer exited
	KindCancelled Kind = "Cancelled"

	// KindIO means feeding the definition or reading the artifact failed
	KindIO Kind = "IOFailure"
)

// Error is a render failure tagged with its Kind
type Error struct {
	Kind Kind

	// ExitCode is the renderer's exit status, set for KindNonZeroExit
	ExitCode int

	// Message is a human-readable description
	Message string

	// Err is the underlying cause (optional)
	Err error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Is maps the timeout, cancellation and start kinds onto the util sentinels
// so callers can use util.IsTimeout and friends.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindTimeout:
		return target == util.ErrTimeout
	case KindCancelled:
		return target == util.ErrCancelled
	case KindStart:
		return target == util.ErrRendererNotFound
	}
	return false
}

func newError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf extracts the failure kind from err
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a render failure of the given kind
func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ExitCode returns the exit code carried by a NonZeroExit failure
func ExitCode(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindNonZeroExit {
		return e.ExitCode, true
	}
	return 0, false
}
