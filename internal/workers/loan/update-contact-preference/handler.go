// internal/workers/loan/update-contact-preference/handler.go
package updatecontactpreference

import (
	"context"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/loan"
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

const (
	TaskType = workflow.TaskUpdateContactPreference
)

type Handler struct {
	config      *Config
	submissions loan.SubmissionStore
	preferences loan.ContactPreferenceStore
	logger      logger.Logger
}

func NewHandler(config *Config, submissions loan.SubmissionStore, preferences loan.ContactPreferenceStore, log logger.Logger) *Handler {
	return &Handler{
		config:      config,
		submissions: submissions,
		preferences: preferences,
		logger:      log.WithFields(map[string]interface{}{"taskType": TaskType}),
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

// Execute attaches the preference to the identity's latest submission.
// The record itself is never modified.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Identity == "" {
		return nil, errors.NewValidationError([]string{"identity: is required"})
	}

	latest, err := h.submissions.GetLatest(ctx, input.Identity)
	if err != nil {
		return nil, errors.FromStoreError("get_latest", err)
	}
	if latest == nil {
		return nil, errors.NewSubmissionNotFoundError(input.Identity)
	}

	pref := models.ContactPreference{
		SubmissionID:     latest.ID,
		Identity:         input.Identity,
		ContactRequested: input.ContactRequested,
		UpdatedAt:        h.config.Clock().UTC(),
	}
	if err := h.preferences.SaveContactPreference(ctx, pref); err != nil {
		return nil, errors.FromStoreError("save_contact_preference", err)
	}

	msg, err := h.config.Catalog.RenderContactPreference(input.Identity, input.ContactRequested)
	if err != nil {
		return nil, err
	}

	h.logger.Info("contact preference updated", map[string]interface{}{
		"submissionId":     latest.ID,
		"contactRequested": input.ContactRequested,
	})
	return &Output{
		ContactPreference: pref,
		ContactMessage:    workflow.ContactMessage{Title: msg.Title, Message: msg.Message},
	}, nil
}
