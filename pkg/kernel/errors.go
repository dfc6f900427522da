package kernel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a capability or task is not registered
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a registration collides with divergent existing state
	ErrConflict = errors.New("conflict")

	// ErrPermissionDenied is returned when the access gate refuses an invocation
	ErrPermissionDenied = errors.New("permission denied")

	// ErrOutOfBounds is returned when a storage path escapes the agent sandbox
	ErrOutOfBounds = errors.New("path outside storage sandbox")

	// ErrTaskDone signals that a task stream has no more units of work.
	// Task streams return it from Advance the way readers return io.EOF.
	ErrTaskDone = errors.New("task done")
)

// ValidationError reports capability parameters that failed schema validation
type ValidationError struct {
	Capability string
	Violations []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid parameters for %s: %s", e.Capability, strings.Join(e.Violations, "; "))
}

// HandlerError wraps an error raised by a capability handler during execution
type HandlerError struct {
	Capability string
	Err        error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler for %s failed: %v", e.Capability, e.Err)
}

// Unwrap exposes the original handler failure for errors.Is/As
func (e *HandlerError) Unwrap() error {
	return e.Err
}
