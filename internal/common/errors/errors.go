// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Permanent errors: never retried, the workflow ends in Invalid or Failed.
const (
	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeParseError              ErrorCode = "PARSE_ERROR"
	ErrCodeMessageTemplateNotFound ErrorCode = "MESSAGE_TEMPLATE_NOT_FOUND"
	ErrCodeSubmissionNotFound      ErrorCode = "SUBMISSION_NOT_FOUND"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// Transient errors: retried per the activity retry policy.
const (
	ErrCodeStoreUnavailable       ErrorCode = "STORE_UNAVAILABLE"
	ErrCodeStoreTimeout           ErrorCode = "STORE_TIMEOUT"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeExternalService        ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeActivityTimeout        ErrorCode = "ACTIVITY_TIMEOUT"
)

// BPMN error codes caught by boundary events in the deployed processes.
const (
	BPMNCodeValidationFailed = "VALIDATION_FAILED"
	BPMNCodeActivityFailed   = "ACTIVITY_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns the variables sent with a thrown BPMN error.
// Boundary events map the "failure" object into process scope.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	failure := map[string]interface{}{
		"code":      e.Code,
		"message":   e.Message,
		"details":   e.Details,
		"retryable": e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		failure[k] = v
	}
	return map[string]interface{}{"failure": failure}
}

// ==========================
// 3. Error Constructors
// ==========================

// NewValidationError creates a non-retryable error carrying every field problem found.
func NewValidationError(issues []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Loan application failed validation",
		Details:   strings.Join(issues, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"errors": issues},
		Timestamp: time.Now().UTC(),
	}
}

// NewParseError creates a non-retryable error for undecodable job variables.
func NewParseError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeParseError,
		Message:   "Job variables could not be decoded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewMessageTemplateNotFoundError creates a non-retryable catalogue error.
func NewMessageTemplateNotFoundError(key string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMessageTemplateNotFound,
		Message:   "Message template not found in catalogue",
		Details:   fmt.Sprintf("key: %s", key),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionNotFoundError creates a non-retryable lookup error.
func NewSubmissionNotFoundError(identity string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionNotFound,
		Message:   "No submission recorded for applicant",
		Details:   fmt.Sprintf("identity: %s", identity),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewStoreUnavailableError creates a retryable submission store error.
func NewStoreUnavailableError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreUnavailable,
		Message:   "Submission store unavailable",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewStoreTimeoutError creates a retryable submission store timeout error.
func NewStoreTimeoutError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStoreTimeout,
		Message:   "Submission store timeout",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewActivityTimeoutError(activity string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityTimeout,
		Message:   fmt.Sprintf("Activity '%s' timed out", activity),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the BPMN error codes the
// processes catch. Codes not listed are thrown as ACTIVITY_FAILED.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeValidationFailed: BPMNCodeValidationFailed,
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = BPMNCodeActivityFailed
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if issues, ok := stdErr.Metadata["errors"]; ok {
		vars["errors"] = issues
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStoreUnavailable:       true,
	ErrCodeStoreTimeout:           true,
	ErrCodeNotificationSendFailed: true,
	ErrCodeExternalService:        true,
	ErrCodeActivityTimeout:        true,
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	case strings.Contains(codeStr, "STORE") || strings.Contains(codeStr, "SUBMISSION"):
		return "STORE"
	case strings.Contains(codeStr, "TEMPLATE"):
		return "TEMPLATE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TIMEOUT") || strings.Contains(codeStr, "EXTERNAL"):
		return "TRANSIENT"
	default:
		return "OTHER"
	}
}
