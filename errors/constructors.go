package errors

import "fmt"

// New creates a new Error with the given code and message.
// The error classification is determined by the error code using default mappings.
//
// Example:
//
//	err := errors.New(errors.CodeNotFound, "command not found: jq")
func New(code ErrorCode, message string) Error {
	return &structuredError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates a new Error with a formatted message.
// The error classification is determined by the error code using default mappings.
//
// Example:
//
//	err := errors.Newf(errors.CodeNotFound, "command not found: %s", name)
func Newf(code ErrorCode, format string, args ...interface{}) Error {
	return &structuredError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        fmt.Sprintf(format, args...),
	}
}
