// internal/common/errors/handler.go
package errors

import (
	"context"
	stderrors "errors"
)

// Normalize ensures we always have a StandardError. Context deadline errors
// become a retryable ACTIVITY_TIMEOUT; anything unclassified is INTERNAL_ERROR.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewActivityTimeoutError("unknown", err)
	}
	return NewInternalError(err)
}

// FromStoreError classifies a raw submission store failure.
func FromStoreError(operation string, err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewStoreTimeoutError(operation, err)
	}
	return NewStoreUnavailableError(operation, err)
}

// CodeOf returns the classified code of err.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// IsCode reports whether err classifies as code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// ValidationIssues returns the field problems attached to a VALIDATION_FAILED error.
func ValidationIssues(err error) []string {
	var stdErr *StandardError
	if !stderrors.As(err, &stdErr) || stdErr.Code != ErrCodeValidationFailed {
		return nil
	}
	issues, _ := stdErr.Metadata["errors"].([]string)
	return issues
}

// Fields returns log fields describing err.
func Fields(err error) map[string]interface{} {
	stdErr := Normalize(err)
	if stdErr == nil {
		return map[string]interface{}{}
	}
	return map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	}
}
