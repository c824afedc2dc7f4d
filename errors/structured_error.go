package errors

import "fmt"

// structuredError is the sole implementation of Error. It is unexported so
// every error in this codebase is built through the package constructors and
// therefore always carries a code and a classification.
type structuredError struct {
	code           ErrorCode
	classification ErrorClassification
	message        string
	context        map[string]interface{}
	cause          error
}

// Error renders "[CODE] message", appending the cause chain when present.
func (e *structuredError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s] %s", e.code, e.message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.code, e.message, e.cause)
}

func (e *structuredError) Code() ErrorCode { return e.code }

func (e *structuredError) Classification() ErrorClassification { return e.classification }

func (e *structuredError) Message() string { return e.message }

// Context returns a copy of the attached metadata, or nil when none was
// attached, so callers cannot mutate the stored map.
func (e *structuredError) Context() map[string]interface{} {
	return copyContext(e.context)
}

func (e *structuredError) Unwrap() error { return e.cause }

// withFields clones the error with extra context fields merged in. New
// fields override stored ones with the same key.
func (e *structuredError) withFields(fields map[string]interface{}) *structuredError {
	merged := make(map[string]interface{}, len(e.context)+len(fields))
	for k, v := range e.context {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	clone := *e
	clone.context = merged
	return &clone
}

// copyContext duplicates a metadata map, preserving nil for the no-context case.
func copyContext(ctx map[string]interface{}) map[string]interface{} {
	if ctx == nil {
		return nil
	}
	out := make(map[string]interface{}, len(ctx))
	for k, v := range ctx {
		out[k] = v
	}
	return out
}
