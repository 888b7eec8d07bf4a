// internal/workers/loan/evaluate-credit-decision/handler.go
package evaluatecreditdecision

import (
	"context"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/metrics"
	"loan-workers/internal/loan"
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

const (
	TaskType = workflow.TaskEvaluateCredit
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(ctx context.Context, job entities.Job) camunda.Settlement {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})
	return workflow.ServeJob(ctx, h.config.Step, h, job)
}

func (h *Handler) Run(ctx context.Context, vars workflow.Variables) (workflow.Variables, error) {
	var input Input
	if err := workflow.Decode(vars, &input); err != nil {
		return nil, err
	}
	output, err := h.Execute(ctx, &input)
	if err != nil {
		return nil, err
	}
	return workflow.Encode(output)
}

// Execute applies the instance's rule snapshot. The verdict is stamped with
// the evaluation time, which later keys the submission record.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	rules := input.Rules
	if rules == (models.RuleSnapshot{}) {
		rules = loan.DefaultRules()
	}

	verdict := loan.Evaluate(input.Application, rules)
	verdict.DecidedAt = h.config.Clock().UTC()

	metrics.LoanDecisions.WithLabelValues(string(verdict.Decision), string(verdict.ReasonCode)).Inc()
	h.logger.Info("credit decision evaluated", map[string]interface{}{
		"identity":   loan.NormalizeIdentity(input.Application.Email),
		"decision":   string(verdict.Decision),
		"reasonCode": string(verdict.ReasonCode),
	})
	return &Output{Verdict: verdict}, nil
}
