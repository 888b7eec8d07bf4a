// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/metrics"
	"loan-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/codes"
)

// JobHandler turns an activated job into a settlement. Handlers never talk
// to the broker themselves; the worker sends the settlement.
type JobHandler interface {
	Handle(ctx context.Context, job entities.Job) Settlement
}

// WorkerOptions configures one job worker.
type WorkerOptions struct {
	TaskType      string
	Name          string
	MaxJobsActive int
	Timeout       time.Duration
}

type CamundaWorker struct {
	worker   worker.JobWorker
	handler  JobHandler
	obs      *observability.Observability
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for opts.TaskType. Job activation timeout is
// opts.Timeout; the handler context gets the same deadline.
func NewWorker(
	client zbc.Client,
	opts WorkerOptions,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	if obs == nil {
		obs = observability.NewNoop()
	}
	w := &CamundaWorker{
		handler:  handler,
		obs:      obs,
		logger:   log.WithFields(map[string]interface{}{"taskType": opts.TaskType}),
		taskType: opts.TaskType,
	}

	w.worker = client.NewJobWorker().
		JobType(opts.TaskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			w.process(jc, job, opts.Timeout)
		}).
		MaxJobsActive(opts.MaxJobsActive).
		Timeout(opts.Timeout).
		Name(opts.Name).
		Open()

	w.logger.Info("worker started", map[string]interface{}{
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return w
}

func (w *CamundaWorker) process(jc worker.JobClient, job entities.Job, timeout time.Duration) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(w.taskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(w.taskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	ctx, span := w.obs.StartJobSpan(ctx, w.taskType, job.Key, job.ProcessInstanceKey)
	defer span.End()

	fields := map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
		"retries":     job.Retries,
	}
	w.logger.Debug("processing job", fields)

	settlement := w.handler.Handle(ctx, job)

	// The handler deadline may have passed; answer on a fresh context.
	sendCtx, sendCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer sendCancel()
	if err := Respond(sendCtx, jc, job, settlement); err != nil {
		span.RecordError(err)
		w.logger.Error("failed to answer job", withFields(fields, map[string]interface{}{
			"action": settlement.Action.String(),
			"error":  err,
		}))
	}

	status := settlement.Action.String()
	switch settlement.Action {
	case ActionComplete:
		metrics.WorkerJobsCompleted.WithLabelValues(w.taskType).Inc()
		span.SetStatus(codes.Ok, "")
	default:
		code := settlement.ErrorCode
		if code == "" {
			code = "UNKNOWN"
		}
		metrics.WorkerJobsFailed.WithLabelValues(w.taskType, code).Inc()
		span.SetStatus(codes.Error, settlement.ErrorMessage)
		w.logger.Warn("job not completed", withFields(fields, map[string]interface{}{
			"action":    status,
			"errorCode": code,
			"message":   settlement.ErrorMessage,
			"backoff":   settlement.Backoff.String(),
		}))
	}

	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(w.taskType).Observe(elapsed.Seconds())
	w.obs.RecordJobProcessed(ctx, w.taskType, status)
	w.obs.RecordJobDuration(ctx, w.taskType, elapsed, status)
}

// Stop closes the job worker and waits for in-flight handlers.
func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", nil)
	w.worker.Close()
	w.worker.AwaitClose()
}

func withFields(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
