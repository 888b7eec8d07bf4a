// internal/workflow/definition.go
package workflow

import (
	"fmt"
	"strings"
	"time"

	"loan-workers/internal/common/config"
)

// Process ids of the deployed BPMN processes.
const (
	LoanEvaluationProcessID    = "loan-evaluation"
	ContactPreferenceProcessID = "contact-preference"
)

// Job types, one per activity.
const (
	TaskValidateApplication     = "validate-loan-application"
	TaskCheckDuplicate          = "check-duplicate-submission"
	TaskEvaluateCredit          = "evaluate-credit-decision"
	TaskFormatMessage           = "format-decision-message"
	TaskPersistSubmission       = "persist-submission"
	TaskNotifyAgent             = "notify-loan-agent"
	TaskUpdateContactPreference = "update-contact-preference"
)

// Process variable names.
const (
	VarApplication       = "application"
	VarIdentity          = "identity"
	VarInstanceKey       = "instanceKey"
	VarRules             = "rules"
	VarDuplicate         = "duplicate"
	VarVerdict           = "verdict"
	VarMessage           = "message"
	VarSubmission        = "submission"
	VarNotification      = "notification"
	VarNotificationError = "notificationFailure"
	VarContactRequested  = "contactRequested"
	VarContactPreference = "contactPreference"
	VarContactMessage    = "contactMessage"
	VarFailure           = "failure"
)

// Condition compares one process variable, addressed by a dotted path, with
// a literal.
type Condition struct {
	Variable string
	Equals   interface{}
}

// FEEL renders the condition as a Zeebe expression.
func (c Condition) FEEL() string {
	switch v := c.Equals.(type) {
	case string:
		return fmt.Sprintf("=%s = %q", c.Variable, v)
	default:
		return fmt.Sprintf("=%s = %v", c.Variable, v)
	}
}

// Holds evaluates the condition against vars. A missing variable never holds.
func (c Condition) Holds(vars Variables) bool {
	var cur interface{} = map[string]interface{}(vars)
	for _, part := range strings.Split(c.Variable, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return false
		}
		if cur, ok = m[part]; !ok {
			return false
		}
	}
	return cur == c.Equals
}

// Exit ends the instance in State when Condition holds after a step.
type Exit struct {
	Condition Condition
	State     State
}

// Step is one activity of a process.
type Step struct {
	TaskType string
	Name     string
	State    State
	Timeout  time.Duration
	Policy   RetryPolicy

	// When, if set, guards the step; the step is skipped when it does not hold.
	When *Condition
	// ExitWhen, if set, is checked after the step completes.
	ExitWhen *Exit
	// Optional steps never fail the instance. Their failure is stored under
	// FailureVariable and the instance continues.
	Optional        bool
	FailureVariable string
}

// Definition is a process: an ordered list of steps.
type Definition struct {
	ProcessID string
	Name      string
	Steps     []Step
}

// Step returns the step for taskType.
func (d Definition) Step(taskType string) (Step, bool) {
	for _, s := range d.Steps {
		if s.TaskType == taskType {
			return s, true
		}
	}
	return Step{}, false
}

// TaskTypes lists the job types of d in order.
func (d Definition) TaskTypes() []string {
	out := make([]string, 0, len(d.Steps))
	for _, s := range d.Steps {
		out = append(out, s.TaskType)
	}
	return out
}

// WithOverrides applies per-worker timeout and attempt settings.
func (d Definition) WithOverrides(workers map[string]config.WorkerConfig) Definition {
	out := d
	out.Steps = make([]Step, len(d.Steps))
	for i, s := range d.Steps {
		if w, ok := workers[s.TaskType]; ok {
			if w.Timeout > 0 {
				s.Timeout = config.GetDuration(w.Timeout)
			}
			if w.MaxRetries > 0 {
				s.Policy.MaximumAttempts = w.MaxRetries
			}
		}
		out.Steps[i] = s
	}
	return out
}

// LoanEvaluation is the loan pre-approval process.
func LoanEvaluation() Definition {
	return Definition{
		ProcessID: LoanEvaluationProcessID,
		Name:      "Loan Evaluation",
		Steps: []Step{
			{
				TaskType: TaskValidateApplication,
				Name:     "Validate application",
				State:    StateValidating,
				Timeout:  10 * time.Second,
				Policy:   policy(3, time.Second, 5*time.Second),
			},
			{
				TaskType: TaskCheckDuplicate,
				Name:     "Check duplicate submission",
				State:    StateDuplicateCheck,
				Timeout:  10 * time.Second,
				Policy:   policy(5, time.Second, 10*time.Second),
				ExitWhen: &Exit{
					Condition: Condition{Variable: VarDuplicate + ".isDuplicate", Equals: true},
					State:     StateDuplicateRejected,
				},
			},
			{
				TaskType: TaskEvaluateCredit,
				Name:     "Evaluate credit decision",
				State:    StateEvaluating,
				Timeout:  30 * time.Second,
				Policy:   policy(5, 2*time.Second, 10*time.Second),
			},
			{
				TaskType: TaskFormatMessage,
				Name:     "Format decision message",
				State:    StateFormatting,
				Timeout:  10 * time.Second,
				Policy:   policy(3, time.Second, 5*time.Second),
			},
			{
				TaskType: TaskPersistSubmission,
				Name:     "Persist submission",
				State:    StatePersisting,
				Timeout:  20 * time.Second,
				Policy:   policy(10, 2*time.Second, 10*time.Second),
			},
			{
				TaskType:        TaskNotifyAgent,
				Name:            "Notify loan agent",
				State:           StateNotifying,
				Timeout:         15 * time.Second,
				Policy:          policy(3, 2*time.Second, 10*time.Second),
				When:            &Condition{Variable: VarVerdict + ".decision", Equals: "conditionally_approved"},
				Optional:        true,
				FailureVariable: VarNotificationError,
			},
		},
	}
}

// ContactPreference is the follow-up process recording whether an applicant
// wants to be contacted about their latest submission.
func ContactPreference() Definition {
	return Definition{
		ProcessID: ContactPreferenceProcessID,
		Name:      "Contact Preference",
		Steps: []Step{
			{
				TaskType: TaskUpdateContactPreference,
				Name:     "Update contact preference",
				State:    StateUpdatingContact,
				Timeout:  15 * time.Second,
				Policy:   policy(5, time.Second, 5*time.Second),
			},
		},
	}
}

// Definitions returns every deployable process.
func Definitions() []Definition {
	return []Definition{LoanEvaluation(), ContactPreference()}
}
