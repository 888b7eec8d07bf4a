// internal/workers/loan/evaluate-credit-decision/handler_test.go
package evaluatecreditdecision

import (
	"context"
	"testing"
	"time"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/metrics"
	"loan-workers/internal/loan"
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T) *Handler {
	cfg := LoadConfig(workflow.LoanEvaluation())
	cfg.Clock = func() time.Time { return now }
	return NewHandler(cfg, logger.NewTestLogger(t))
}

func application(score int, amount, income float64) models.ApplicationRequest {
	return models.ApplicationRequest{
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		LoanAmount:   amount,
		CreditScore:  score,
		AnnualIncome: income,
	}
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name     string
		app      models.ApplicationRequest
		decision models.Decision
		reason   models.ReasonCode
	}{
		{"approved", application(760, 50000, 100000), models.DecisionApproved, models.ReasonMeetsAllCriteria},
		{"conditional mid band", application(680, 50000, 100000), models.DecisionConditionallyApproved, models.ReasonCreditScoreMidBand},
		{"rejected low score", application(600, 50000, 100000), models.DecisionRejected, models.ReasonCreditScoreBelowMinimum},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := metrics.LoanDecisions.WithLabelValues(string(tt.decision), string(tt.reason))
			before := testutil.ToFloat64(counter)

			out, err := newTestHandler(t).Execute(context.Background(), &Input{Application: tt.app, Rules: loan.DefaultRules()})
			require.NoError(t, err)
			assert.Equal(t, tt.decision, out.Verdict.Decision)
			assert.Equal(t, tt.reason, out.Verdict.ReasonCode)
			assert.Equal(t, now, out.Verdict.DecidedAt)
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

func TestExecuteUsesSnapshot(t *testing.T) {
	rules := loan.DefaultRules()
	rules.MinCreditScore = 700

	out, err := newTestHandler(t).Execute(context.Background(), &Input{Application: application(680, 50000, 100000), Rules: rules})
	require.NoError(t, err)
	assert.Equal(t, models.DecisionRejected, out.Verdict.Decision)
}

func TestHandleCompletesWithVerdict(t *testing.T) {
	job := entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       1,
		Type:      TaskType,
		Retries:   5,
		Variables: `{"application":{"name":"Jane","email":"jane@example.com","loanAmount":50000,"creditScore":760,"annualIncome":100000,"hasBankruptcy":true}}`,
	}}

	s := newTestHandler(t).Handle(context.Background(), job)
	require.Equal(t, camunda.ActionComplete, s.Action)

	verdict := s.Variables["verdict"].(map[string]interface{})
	assert.Equal(t, "rejected", verdict["decision"])
	assert.Equal(t, "BANKRUPTCY", verdict["reasonCode"])
	assert.Equal(t, "2026-03-10T09:00:00Z", verdict["decidedAt"])
}
