// internal/workflow/definition_test.go
package workflow

import (
	"testing"
	"time"

	"loan-workers/internal/common/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConditionHolds(t *testing.T) {
	vars := Variables{
		"verdict":   map[string]interface{}{"decision": "conditionally_approved"},
		"duplicate": map[string]interface{}{"isDuplicate": true},
		"flat":      "x",
	}

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"nested string", Condition{Variable: "verdict.decision", Equals: "conditionally_approved"}, true},
		{"nested mismatch", Condition{Variable: "verdict.decision", Equals: "approved"}, false},
		{"nested bool", Condition{Variable: "duplicate.isDuplicate", Equals: true}, true},
		{"missing variable", Condition{Variable: "notification.status", Equals: "sent"}, false},
		{"path through scalar", Condition{Variable: "flat.inner", Equals: "x"}, false},
		{"top level", Condition{Variable: "flat", Equals: "x"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Holds(vars))
		})
	}
}

func TestConditionFEEL(t *testing.T) {
	assert.Equal(t, `=verdict.decision = "conditionally_approved"`,
		Condition{Variable: "verdict.decision", Equals: "conditionally_approved"}.FEEL())
	assert.Equal(t, "=duplicate.isDuplicate = true",
		Condition{Variable: "duplicate.isDuplicate", Equals: true}.FEEL())
}

func TestLoanEvaluationPolicies(t *testing.T) {
	def := LoanEvaluation()
	assert.Equal(t, []string{
		TaskValidateApplication,
		TaskCheckDuplicate,
		TaskEvaluateCredit,
		TaskFormatMessage,
		TaskPersistSubmission,
		TaskNotifyAgent,
	}, def.TaskTypes())

	tests := []struct {
		taskType string
		timeout  time.Duration
		attempts int
		initial  time.Duration
		maximum  time.Duration
	}{
		{TaskValidateApplication, 10 * time.Second, 3, time.Second, 5 * time.Second},
		{TaskCheckDuplicate, 10 * time.Second, 5, time.Second, 10 * time.Second},
		{TaskEvaluateCredit, 30 * time.Second, 5, 2 * time.Second, 10 * time.Second},
		{TaskFormatMessage, 10 * time.Second, 3, time.Second, 5 * time.Second},
		{TaskPersistSubmission, 20 * time.Second, 10, 2 * time.Second, 10 * time.Second},
		{TaskNotifyAgent, 15 * time.Second, 3, 2 * time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.taskType, func(t *testing.T) {
			step, ok := def.Step(tt.taskType)
			require.True(t, ok)
			assert.Equal(t, tt.timeout, step.Timeout)
			assert.Equal(t, tt.attempts, step.Policy.MaximumAttempts)
			assert.Equal(t, tt.initial, step.Policy.InitialInterval)
			assert.Equal(t, 2.0, step.Policy.BackoffCoefficient)
			assert.Equal(t, tt.maximum, step.Policy.MaximumInterval)
		})
	}

	notify, _ := def.Step(TaskNotifyAgent)
	assert.True(t, notify.Optional)
	assert.Equal(t, VarNotificationError, notify.FailureVariable)
	require.NotNil(t, notify.When)

	dup, _ := def.Step(TaskCheckDuplicate)
	require.NotNil(t, dup.ExitWhen)
	assert.Equal(t, StateDuplicateRejected, dup.ExitWhen.State)

	_, ok := def.Step("unknown")
	assert.False(t, ok)
}

func TestWithOverrides(t *testing.T) {
	def := LoanEvaluation().WithOverrides(map[string]config.WorkerConfig{
		TaskPersistSubmission: {Enabled: true, Timeout: 5000, MaxRetries: 4},
		TaskFormatMessage:     {Enabled: true},
	})

	persist, _ := def.Step(TaskPersistSubmission)
	assert.Equal(t, 5*time.Second, persist.Timeout)
	assert.Equal(t, 4, persist.Policy.MaximumAttempts)

	format, _ := def.Step(TaskFormatMessage)
	assert.Equal(t, 10*time.Second, format.Timeout)
	assert.Equal(t, 3, format.Policy.MaximumAttempts)

	original, _ := LoanEvaluation().Step(TaskPersistSubmission)
	assert.Equal(t, 10, original.Policy.MaximumAttempts)
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, LoanEvaluationProcessID, defs[0].ProcessID)
	assert.Equal(t, ContactPreferenceProcessID, defs[1].ProcessID)
	assert.Equal(t, []string{TaskUpdateContactPreference}, defs[1].TaskTypes())
}
