package shell

import (
	"fmt"
	"strings"
)

// ExitError reports a command that ran and exited with a non-zero,
// non-ignored status. Stderr holds the fully captured standard error text;
// Error returns it with internal newlines flattened to spaces.
type ExitError struct {
	// Name is the display name of the command (executable path plus arguments).
	Name string

	// Code is the exit code returned by the command.
	Code int

	// Stderr is the full captured standard error text.
	Stderr string
}

// Error returns the flattened stderr text, or a generic exit-status message
// when the command produced no stderr output.
func (e *ExitError) Error() string {
	msg := strings.TrimSpace(strings.ReplaceAll(e.Stderr, "\n", " "))
	if msg == "" {
		return fmt.Sprintf("command %s failed with exit code %d", e.Name, e.Code)
	}
	return msg
}

// IgnoredError reports a RunningCommand that was discarded while still open.
// It is logged by the disposal safety net rather than returned from any
// consuming operation.
type IgnoredError struct {
	// Name is the display name of the discarded command.
	Name string
}

// Error implements the error interface.
func (e *IgnoredError) Error() string {
	return fmt.Sprintf("command %s disposed without being waited", e.Name)
}
