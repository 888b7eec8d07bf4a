// internal/workers/loan/check-duplicate-submission/handler.go
package checkduplicatesubmission

import (
	"context"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/metrics"
	"loan-workers/internal/loan"
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

const (
	TaskType = workflow.TaskCheckDuplicate
)

type Handler struct {
	config *Config
	guard  *loan.DuplicateGuard
	logger logger.Logger
}

func NewHandler(config *Config, store loan.SubmissionStore, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		guard:  loan.NewDuplicateGuard(store, log),
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Identity == "" {
		return nil, errors.NewValidationError([]string{"identity: is required"})
	}

	rules := input.Rules
	if rules == (models.RuleSnapshot{}) {
		rules = loan.DefaultRules()
	}

	check, err := h.guard.Check(ctx, input.Identity, h.config.Clock(), rules.Cooldown())
	if err != nil {
		return nil, err
	}
	if check.IsDuplicate {
		metrics.DuplicateRejections.Inc()
	}
	return &Output{Duplicate: check}, nil
}
