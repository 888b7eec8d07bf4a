// internal/workers/loan/persist-submission/handler.go
package persistsubmission

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
	TaskType = workflow.TaskPersistSubmission
)

type Handler struct {
	config   *Config
	recorder *loan.Recorder
	logger   logger.Logger
}

// NewHandler wires the recorder. audit may be nil.
func NewHandler(config *Config, store loan.SubmissionStore, audit loan.AuditSink, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		recorder: loan.NewRecorder(store, audit, log),
		logger:   log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// Execute records the submission at the verdict's decision time, so every
// re-delivery of the job writes the same record.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Identity == "" || input.Verdict.DecidedAt.IsZero() {
		return nil, errors.NewValidationError([]string{"identity and verdict.decidedAt: are required"})
	}

	record, err := h.recorder.Persist(ctx, input.Identity, input.Application, input.Verdict, input.Verdict.DecidedAt)
	if err != nil {
		return nil, err
	}
	return &Output{Submission: workflow.SubmissionRef{ID: record.ID, DecidedAt: record.DecidedAt}}, nil
}
