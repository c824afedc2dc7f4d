package errors

import (
	stderrors "errors"
)

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard library errors.As.
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// GetCode extracts the ErrorCode from an error.
// Returns CodeUnknown if the error is nil or not an Error.
//
// This function handles the error chain and will extract the code from
// the outermost Error in the chain.
//
// Example:
//
//	if errors.GetCode(err) == errors.CodeNotFound {
//	    // command missing from PATH
//	}
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeUnknown
	}

	var structured Error
	if stderrors.As(err, &structured) {
		return structured.Code()
	}

	return CodeUnknown
}

// GetClassification extracts the ErrorClassification from an error.
// Returns ClassificationPermanent if the error is nil or not an Error;
// this is a safe default that prevents inappropriate retry attempts.
func GetClassification(err error) ErrorClassification {
	if err == nil {
		return ClassificationPermanent
	}

	var structured Error
	if stderrors.As(err, &structured) {
		return structured.Classification()
	}

	return ClassificationPermanent
}

// IsRetryable reports whether the error should be retried.
// Returns false for nil errors and non-Error errors.
func IsRetryable(err error) bool {
	return GetClassification(err).IsRetryable()
}

// IsCode reports whether the error carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		var structured Error
		if !stderrors.As(err, &structured) {
			return false
		}
		if structured.Code() == code {
			return true
		}
		err = structured.Unwrap()
	}
	return false
}
