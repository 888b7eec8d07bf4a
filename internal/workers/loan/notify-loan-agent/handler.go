// internal/workers/loan/notify-loan-agent/handler.go
package notifyloanagent

import (
	"context"
	"time"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/metrics"
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

const (
	TaskType = workflow.TaskNotifyAgent
)

// Notifier delivers agent notifications.
type Notifier interface {
	Notify(ctx context.Context, n models.AgentNotification, now time.Time) (*models.NotificationReceipt, error)
}

type Handler struct {
	config   *Config
	notifier Notifier
	logger   logger.Logger
}

func NewHandler(config *Config, notifier Notifier, log logger.Logger) *Handler {
	return &Handler{
		config:   config,
		notifier: notifier,
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	receipt, err := h.notifier.Notify(ctx, models.AgentNotification{
		SubmissionID: input.Submission.ID,
		Identity:     input.Identity,
		Name:         input.Application.Name,
		LoanAmount:   input.Application.LoanAmount,
		Decision:     input.Verdict.Decision,
		ReasonCode:   input.Verdict.ReasonCode,
		Conditions:   input.Verdict.Conditions,
	}, h.config.Clock())
	if err != nil {
		metrics.AgentNotifications.WithLabelValues("failed").Inc()
		h.logger.Warn("agent notification failed", map[string]interface{}{
			"submissionId": input.Submission.ID,
			"error":        err,
		})
		return nil, err
	}

	metrics.AgentNotifications.WithLabelValues(receipt.Status).Inc()
	h.logger.Info("agent notified", map[string]interface{}{
		"submissionId": input.Submission.ID,
		"status":       receipt.Status,
	})
	return &Output{Notification: receipt}, nil
}
