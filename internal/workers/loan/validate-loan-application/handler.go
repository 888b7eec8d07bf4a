// internal/workers/loan/validate-loan-application/handler.go
package validateloanapplication

import (
	"context"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/loan"
	"loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

const (
	TaskType = workflow.TaskValidateApplication
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	req, err := loan.ValidateApplication(input.Application)
	if err != nil {
		h.logger.Warn("application rejected", map[string]interface{}{
			"errors": errors.ValidationIssues(err),
			"error":  err,
		})
		return nil, err
	}

	h.logger.Info("application valid", map[string]interface{}{
		"identity": loan.NormalizeIdentity(req.Email),
	})
	return &Output{Application: *req}, nil
}
