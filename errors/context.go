package errors

import "errors"

// WithContext adds a single context field to an error, preserving any fields
// already attached. Plain errors are converted to an Error with CodeUnknown
// first. Returns nil if err is nil.
//
// Example:
//
//	err = errors.WithContext(err, "target", target)
func WithContext(err error, key string, value interface{}) Error {
	if err == nil {
		return nil
	}
	return toStructured(err).withFields(map[string]interface{}{key: value})
}

// WithContextMap adds multiple context fields to an error. Existing fields
// are preserved; new fields override existing ones with the same key.
// Returns nil if err is nil.
func WithContextMap(err error, ctx map[string]interface{}) Error {
	if err == nil {
		return nil
	}
	return toStructured(err).withFields(ctx)
}

// toStructured finds the structured error in err's chain, or wraps a plain
// error with CodeUnknown.
func toStructured(err error) *structuredError {
	var structured *structuredError
	if errors.As(err, &structured) {
		return structured
	}
	return &structuredError{
		code:           CodeUnknown,
		classification: ClassificationPermanent,
		message:        err.Error(),
		cause:          err,
	}
}
