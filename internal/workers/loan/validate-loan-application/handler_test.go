// internal/workers/loan/validate-loan-application/handler_test.go
package validateloanapplication

import (
	"context"
	"testing"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) *Handler {
	return NewHandler(LoadConfig(workflow.LoanEvaluation()), logger.NewTestLogger(t))
}

func validApplication() map[string]interface{} {
	return map[string]interface{}{
		"name":          "  Jane Doe ",
		"email":         "jane@example.com",
		"loanAmount":    50000.0,
		"creditScore":   760.0,
		"annualIncome":  100000.0,
		"hasBankruptcy": false,
	}
}

func TestRunValidApplication(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Run(context.Background(), workflow.Variables{"application": validApplication()})
	require.NoError(t, err)

	app, ok := out["application"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", app["name"])
	assert.Equal(t, 760.0, app["creditScore"])
}

func TestRunInvalidApplication(t *testing.T) {
	h := newTestHandler(t)
	app := validApplication()
	app["email"] = "not-an-email"
	app["creditScore"] = 900.0
	delete(app, "hasBankruptcy")

	_, err := h.Run(context.Background(), workflow.Variables{"application": app})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
	assert.Len(t, errors.ValidationIssues(err), 3)
}

func TestRunMissingApplication(t *testing.T) {
	_, err := newTestHandler(t).Run(context.Background(), workflow.Variables{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeValidationFailed))
}

func TestHandleThrowsValidationFailed(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                1,
		Type:               TaskType,
		ProcessInstanceKey: 2,
		Retries:            3,
		Variables:          `{"application":{"name":"Jane","email":"jane@example.com","loanAmount":-5,"creditScore":700,"annualIncome":1,"hasBankruptcy":false}}`,
	}}

	s := newTestHandler(t).Handle(context.Background(), job)
	assert.Equal(t, camunda.ActionThrow, s.Action)
	assert.Equal(t, errors.BPMNCodeValidationFailed, s.ErrorCode)
	assert.Contains(t, s.ErrorVariables, "failure")
}

func TestHandleCompletes(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       1,
		Type:      TaskType,
		Retries:   3,
		Variables: `{"application":{"name":"Jane","email":"jane@example.com","loanAmount":5000,"creditScore":700,"annualIncome":60000,"hasBankruptcy":false}}`,
	}}

	s := newTestHandler(t).Handle(context.Background(), job)
	assert.Equal(t, camunda.ActionComplete, s.Action)
	assert.Contains(t, s.Variables, "application")
}
