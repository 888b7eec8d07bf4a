// internal/workflow/policy.go
package workflow

import (
	"math"
	"time"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/errors"
)

// RetryPolicy controls how often a failing activity is retried.
type RetryPolicy struct {
	MaximumAttempts        int
	InitialInterval        time.Duration
	BackoffCoefficient     float64
	MaximumInterval        time.Duration
	NonRetryableErrorCodes []errors.ErrorCode
}

// defaultNonRetryable are error kinds retrying cannot fix.
var defaultNonRetryable = []errors.ErrorCode{
	errors.ErrCodeValidationFailed,
	errors.ErrCodeParseError,
	errors.ErrCodeMessageTemplateNotFound,
	errors.ErrCodeSubmissionNotFound,
}

func policy(attempts int, initial, maximum time.Duration) RetryPolicy {
	return RetryPolicy{
		MaximumAttempts:        attempts,
		InitialInterval:        initial,
		BackoffCoefficient:     2.0,
		MaximumInterval:        maximum,
		NonRetryableErrorCodes: defaultNonRetryable,
	}
}

// Backoff is the wait before the attempt after attempt (1-based):
// initial * coefficient^(attempt-1), capped at MaximumInterval.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := float64(p.InitialInterval) * math.Pow(p.BackoffCoefficient, float64(attempt-1))
	if p.MaximumInterval > 0 && d > float64(p.MaximumInterval) {
		return p.MaximumInterval
	}
	return time.Duration(d)
}

// Retryable reports whether err may be retried under p.
func (p RetryPolicy) Retryable(err *errors.StandardError) bool {
	for _, code := range p.NonRetryableErrorCodes {
		if err.Code == code {
			return false
		}
	}
	return err.Retryable
}

// Failure builds the variables describing a step's terminal failure.
func Failure(step Step, err error) (string, map[string]interface{}) {
	std := errors.Normalize(err)
	bpmnErr := errors.ConvertToBPMNError(std)
	vars := bpmnErr.ToErrorVariables()
	if failure, ok := vars[VarFailure].(map[string]interface{}); ok {
		failure["step"] = step.TaskType
	}
	return bpmnErr.Code, vars
}

// Settle answers a Zeebe job for step. retries is the job's remaining
// retries, which starts at MaximumAttempts. Retryable errors hand the job
// back with one retry less; exhausted or non-retryable errors are thrown as
// BPMN errors so the process routes to its failure end.
func (s Step) Settle(retries int32, output Variables, err error) camunda.Settlement {
	if err == nil {
		return camunda.Settlement{Action: camunda.ActionComplete, Variables: output}
	}

	std := errors.Normalize(err)
	if s.Policy.Retryable(std) && retries > 1 {
		attempt := s.Policy.MaximumAttempts - int(retries) + 1
		return camunda.Settlement{
			Action:       camunda.ActionFail,
			Retries:      retries - 1,
			Backoff:      s.Policy.Backoff(attempt),
			ErrorCode:    string(std.Code),
			ErrorMessage: describe(std),
		}
	}

	code, vars := Failure(s, std)
	return camunda.Settlement{
		Action:         camunda.ActionThrow,
		ErrorCode:      code,
		ErrorMessage:   describe(std),
		ErrorVariables: vars,
	}
}

func describe(err *errors.StandardError) string {
	if err.Details != "" {
		return err.Message + ": " + err.Details
	}
	return err.Message
}
