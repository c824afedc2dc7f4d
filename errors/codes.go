// Package errors provides structured error handling for scriptkit.
// It extends Go's standard error handling with error codes, retry classification,
// and context preservation while staying compatible with errors.Is/As/Unwrap.
package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Resolution errors.

	// CodeNotFound indicates a requested resource does not exist,
	// typically an executable missing from the search path or a file
	// missing from the filesystem.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAlreadyExists indicates a resource already exists and cannot be
	// created again.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Validation errors.

	// CodeInvalidInput indicates the provided input is invalid or malformed.
	CodeInvalidInput ErrorCode = "INVALID_INPUT"

	// CodeInvalidConfig indicates a configuration error prevents the
	// operation, such as a malformed task file.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// Execution errors.

	// CodeExecutionFailed indicates a command ran and exited with a
	// non-zero, non-ignored status.
	CodeExecutionFailed ErrorCode = "EXECUTION_FAILED"

	// CodeCommandIgnored indicates a running command was discarded
	// without its outcome being observed.
	CodeCommandIgnored ErrorCode = "COMMAND_IGNORED"

	// CodeTaskFailed indicates a task rule could not be brought up to date.
	CodeTaskFailed ErrorCode = "TASK_FAILED"

	// Infrastructure errors.

	// CodeIOFailed indicates a pipe or filesystem operation failed.
	CodeIOFailed ErrorCode = "IO_FAILED"

	// CodeTimeout indicates an operation exceeded its time limit.
	CodeTimeout ErrorCode = "TIMEOUT"

	// System errors.

	// CodeInternal indicates an internal invariant was violated.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unclassified error.
	CodeUnknown ErrorCode = "UNKNOWN"
)

// String returns the string representation of the error code.
func (c ErrorCode) String() string {
	return string(c)
}
