// internal/workers/handlers.go

// Package workers assembles the loan job handlers for the worker manager
// and the in-process runner.
package workers

import (
	"fmt"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/validation"
	"loan-workers/internal/loan"
	checkduplicatesubmission "loan-workers/internal/workers/loan/check-duplicate-submission"
	evaluatecreditdecision "loan-workers/internal/workers/loan/evaluate-credit-decision"
	formatdecisionmessage "loan-workers/internal/workers/loan/format-decision-message"
	notifyloanagent "loan-workers/internal/workers/loan/notify-loan-agent"
	persistsubmission "loan-workers/internal/workers/loan/persist-submission"
	updatecontactpreference "loan-workers/internal/workers/loan/update-contact-preference"
	validateloanapplication "loan-workers/internal/workers/loan/validate-loan-application"
	"loan-workers/internal/workflow"
)

// Handler serves a task type both as a Zeebe job handler and as an
// in-process activity.
type Handler interface {
	camunda.JobHandler
	workflow.Activity
}

// Dependencies are the collaborators shared by the handlers. Audit may be
// nil. Clock defaults to the system clock.
type Dependencies struct {
	Submissions loan.SubmissionStore
	Preferences loan.ContactPreferenceStore
	Audit       loan.AuditSink
	Notifier    notifyloanagent.Notifier
	Catalog     *loan.Catalog
	Clock       loan.Clock
}

// Build returns one handler per step of defs, keyed by task type. Each step
// keeps the retry policy and timeout of the definition it came from.
func Build(defs []workflow.Definition, deps Dependencies, log logger.Logger) (map[string]Handler, error) {
	if deps.Catalog == nil {
		deps.Catalog = loan.DefaultCatalog()
	}
	if deps.Clock == nil {
		deps.Clock = loan.SystemClock
	}

	handlers := make(map[string]Handler)
	for _, def := range defs {
		for _, step := range def.Steps {
			if err := validation.ValidateTaskTypeNaming(step.TaskType); err != nil {
				return nil, err
			}
			h, err := build(def, step.TaskType, deps, log)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", def.ProcessID, err)
			}
			handlers[step.TaskType] = h
		}
	}
	return handlers, nil
}

func build(def workflow.Definition, taskType string, deps Dependencies, log logger.Logger) (Handler, error) {
	switch taskType {
	case validateloanapplication.TaskType:
		return validateloanapplication.NewHandler(validateloanapplication.LoadConfig(def), log), nil

	case checkduplicatesubmission.TaskType:
		if deps.Submissions == nil {
			return nil, fmt.Errorf("%s needs a submission store", taskType)
		}
		cfg := checkduplicatesubmission.LoadConfig(def)
		cfg.Clock = deps.Clock
		return checkduplicatesubmission.NewHandler(cfg, deps.Submissions, log), nil

	case evaluatecreditdecision.TaskType:
		cfg := evaluatecreditdecision.LoadConfig(def)
		cfg.Clock = deps.Clock
		return evaluatecreditdecision.NewHandler(cfg, log), nil

	case formatdecisionmessage.TaskType:
		step, _ := def.Step(taskType)
		cfg := &formatdecisionmessage.Config{Step: step, Catalog: deps.Catalog}
		return formatdecisionmessage.NewHandler(cfg, log), nil

	case persistsubmission.TaskType:
		if deps.Submissions == nil {
			return nil, fmt.Errorf("%s needs a submission store", taskType)
		}
		return persistsubmission.NewHandler(persistsubmission.LoadConfig(def), deps.Submissions, deps.Audit, log), nil

	case notifyloanagent.TaskType:
		if deps.Notifier == nil {
			return nil, fmt.Errorf("%s needs a notifier", taskType)
		}
		cfg := notifyloanagent.LoadConfig(def)
		cfg.Clock = deps.Clock
		return notifyloanagent.NewHandler(cfg, deps.Notifier, log), nil

	case updatecontactpreference.TaskType:
		if deps.Submissions == nil || deps.Preferences == nil {
			return nil, fmt.Errorf("%s needs submission and preference stores", taskType)
		}
		cfg := updatecontactpreference.LoadConfig(def, deps.Catalog)
		cfg.Clock = deps.Clock
		return updatecontactpreference.NewHandler(cfg, deps.Submissions, deps.Preferences, log), nil
	}
	return nil, fmt.Errorf("unknown task type %s", taskType)
}

// Activities narrows handlers to the activity view the Runner takes.
func Activities(handlers map[string]Handler) map[string]workflow.Activity {
	out := make(map[string]workflow.Activity, len(handlers))
	for k, h := range handlers {
		out[k] = h
	}
	return out
}

// Runners builds an in-process runner per definition over the same handlers.
func Runners(defs []workflow.Definition, handlers map[string]Handler, history workflow.History, log logger.Logger, opts ...workflow.RunnerOption) ([]*workflow.Runner, error) {
	activities := Activities(handlers)
	runners := make([]*workflow.Runner, 0, len(defs))
	for _, def := range defs {
		r, err := workflow.NewRunner(def, activities, history, log, opts...)
		if err != nil {
			return nil, err
		}
		runners = append(runners, r)
	}
	return runners, nil
}
