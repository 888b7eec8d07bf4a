// internal/workflow/outcome.go
package workflow

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/models"
)

// State is a workflow state. The last five are terminal.
type State string

const (
	StateStarted         State = "Started"
	StateValidating      State = "Validating"
	StateDuplicateCheck  State = "DuplicateCheck"
	StateEvaluating      State = "Evaluating"
	StateFormatting      State = "Formatting"
	StatePersisting      State = "Persisting"
	StateNotifying       State = "Notifying"
	StateUpdatingContact State = "UpdatingContact"

	StateCompleted         State = "Completed"
	StateDuplicateRejected State = "DuplicateRejected"
	StateInvalid           State = "Invalid"
	StateFailed            State = "Failed"
	StateTerminated        State = "Terminated"
)

// Terminal reports whether s ends an instance.
func (s State) Terminal() bool {
	switch s {
	case StateCompleted, StateDuplicateRejected, StateInvalid, StateFailed, StateTerminated:
		return true
	}
	return false
}

// AlreadyRunningError is returned by Start while an instance with the same
// key has not reached a terminal state. Callers should check back later.
type AlreadyRunningError struct {
	InstanceKey string
}

func (e *AlreadyRunningError) Error() string {
	return fmt.Sprintf("workflow instance %s is already running", e.InstanceKey)
}

// DuplicateRejectedError is the business rejection of a resubmission inside
// the cooldown window.
type DuplicateRejectedError struct {
	Identity      string
	Remaining     time.Duration
	RemainingDays int
}

func (e *DuplicateRejectedError) Error() string {
	return fmt.Sprintf("duplicate submission for %s: retry in %d day(s)", e.Identity, e.RemainingDays)
}

// ValidationError rejects a malformed application.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid application: " + strings.Join(e.Errors, "; ")
}

// FailedError is an operational failure: a step exhausted its retries or hit
// a non-retryable error.
type FailedError struct {
	Step  string
	Code  errors.ErrorCode
	Cause string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("step %s failed with %s: %s", e.Step, e.Code, e.Cause)
}

// ErrTerminated marks an instance cancelled by an operator.
var ErrTerminated = stderrors.New("workflow instance terminated")

// TerminatedError reports an operator cancellation.
type TerminatedError struct {
	InstanceKey string
}

func (e *TerminatedError) Error() string {
	return fmt.Sprintf("workflow instance %s was terminated", e.InstanceKey)
}

func (e *TerminatedError) Unwrap() error { return ErrTerminated }

// ContactResult is the outcome of the contact-preference process.
type ContactResult struct {
	Preference models.ContactPreference `json:"preference"`
	Title      string                   `json:"title"`
	Message    string                   `json:"message"`
}

// Outcome is the result of an instance. Err is nil only when State is
// StateCompleted.
type Outcome struct {
	InstanceKey  string
	State        State
	Verdict      *models.Verdict
	Message      *models.DecisionMessage
	SubmissionID string
	Notification *models.NotificationReceipt
	Contact      *ContactResult
	Err          error
}

// failureVars mirrors the failure variable written by error boundary events.
type failureVars struct {
	Code              string   `json:"code"`
	Message           string   `json:"message"`
	Details           string   `json:"details"`
	OriginalErrorCode string   `json:"originalErrorCode"`
	Step              string   `json:"step"`
	Errors            []string `json:"errors"`
}

type outcomeVars struct {
	Identity     string                      `json:"identity"`
	Failure      *failureVars                `json:"failure"`
	Duplicate    *models.DuplicateCheck      `json:"duplicate"`
	Verdict      *models.Verdict             `json:"verdict"`
	Message      *models.DecisionMessage     `json:"message"`
	Submission   *SubmissionRef              `json:"submission"`
	Notification *models.NotificationReceipt `json:"notification"`
	Contact      *models.ContactPreference   `json:"contactPreference"`
	ContactMsg   *ContactMessage             `json:"contactMessage"`
}

// ContactMessage is the confirmation text of the contact-preference process.
type ContactMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SubmissionRef is the persist step's output.
type SubmissionRef struct {
	ID        string    `json:"id"`
	DecidedAt time.Time `json:"decidedAt"`
}

// OutcomeVariables are the variables fetched when awaiting a result.
var OutcomeVariables = []string{
	VarIdentity, VarFailure, VarDuplicate, VarVerdict, VarMessage,
	VarSubmission, VarNotification, VarContactPreference, VarContactMessage,
}

// DecodeOutcome derives the outcome of a finished instance from its variables.
func DecodeOutcome(instanceKey string, vars Variables) (*Outcome, error) {
	var v outcomeVars
	if err := Decode(vars, &v); err != nil {
		return nil, err
	}

	out := &Outcome{InstanceKey: instanceKey}
	switch {
	case v.Failure != nil && v.Failure.Code == errors.BPMNCodeValidationFailed:
		out.State = StateInvalid
		issues := v.Failure.Errors
		if len(issues) == 0 {
			issues = []string{v.Failure.Details}
		}
		out.Err = &ValidationError{Errors: issues}

	case v.Failure != nil:
		out.State = StateFailed
		code := v.Failure.OriginalErrorCode
		if code == "" {
			code = v.Failure.Code
		}
		cause := v.Failure.Message
		if v.Failure.Details != "" {
			cause += ": " + v.Failure.Details
		}
		out.Err = &FailedError{Step: v.Failure.Step, Code: errors.ErrorCode(code), Cause: cause}

	case v.Duplicate != nil && v.Duplicate.IsDuplicate:
		out.State = StateDuplicateRejected
		out.Err = &DuplicateRejectedError{
			Identity:      v.Duplicate.Identity,
			Remaining:     v.Duplicate.Remaining(),
			RemainingDays: v.Duplicate.RemainingDays,
		}

	case v.Verdict != nil:
		out.State = StateCompleted
		out.Verdict = v.Verdict
		out.Message = v.Message
		out.Notification = v.Notification
		if v.Submission != nil {
			out.SubmissionID = v.Submission.ID
		}

	case v.Contact != nil:
		out.State = StateCompleted
		out.Contact = &ContactResult{Preference: *v.Contact}
		if v.ContactMsg != nil {
			out.Contact.Title = v.ContactMsg.Title
			out.Contact.Message = v.ContactMsg.Message
		}

	default:
		return nil, fmt.Errorf("instance %s ended without a result", instanceKey)
	}
	return out, nil
}

// Terminated builds the outcome of a cancelled instance.
func Terminated(instanceKey string) *Outcome {
	return &Outcome{
		InstanceKey: instanceKey,
		State:       StateTerminated,
		Err:         &TerminatedError{InstanceKey: instanceKey},
	}
}
