// internal/workflow/runner.go
package workflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
)

// Activity is the unit of work behind a step. It is invoked with the
// instance's current variables and returns the variables it sets.
type Activity interface {
	Run(ctx context.Context, vars Variables) (Variables, error)
}

// ActivityFunc adapts a function to Activity.
type ActivityFunc func(ctx context.Context, vars Variables) (Variables, error)

func (f ActivityFunc) Run(ctx context.Context, vars Variables) (Variables, error) {
	return f(ctx, vars)
}

// ServeJob runs act for one activated Zeebe job of step and returns the
// settlement to send back.
func ServeJob(ctx context.Context, step Step, act Activity, job entities.Job) camunda.Settlement {
	vars, err := ParseVariables(job.Variables)
	var out Variables
	if err == nil {
		out, err = act.Run(ctx, vars)
	}
	return step.Settle(job.Retries, out, err)
}

// Runner executes a Definition in process with the same retry semantics the
// job workers apply, journaling each finished step. Resume replays the
// journal so completed steps are not executed again.
//
// Cancelling the context passed to Start or Resume behaves like a crash:
// nothing is journaled and the instance can be resumed. Cancelling with
// cause ErrTerminated closes the instance as Terminated.
type Runner struct {
	def        Definition
	activities map[string]Activity
	history    History
	sleep      func(ctx context.Context, d time.Duration) error
	logger     logger.Logger
}

type RunnerOption func(*Runner)

// WithSleep replaces the backoff sleep, e.g. to run retries instantly in tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) RunnerOption {
	return func(r *Runner) { r.sleep = sleep }
}

// NewRunner checks that every step of def has an activity.
func NewRunner(def Definition, activities map[string]Activity, history History, log logger.Logger, opts ...RunnerOption) (*Runner, error) {
	for _, s := range def.Steps {
		if _, ok := activities[s.TaskType]; !ok {
			return nil, fmt.Errorf("no activity registered for %s", s.TaskType)
		}
	}
	r := &Runner{
		def:        def,
		activities: activities,
		history:    history,
		sleep:      sleepContext,
		logger: log.WithFields(map[string]interface{}{
			"component": "workflow-runner",
			"processId": def.ProcessID,
		}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Definition returns the process the runner executes.
func (r *Runner) Definition() Definition {
	return r.def
}

// Start begins a new instance. It fails with *AlreadyRunningError when the
// key already has a journal.
func (r *Runner) Start(ctx context.Context, instanceKey string, input Variables) (*Outcome, error) {
	journal, err := r.history.Load(ctx, instanceKey)
	if err != nil {
		return nil, err
	}
	if len(journal) > 0 {
		return nil, &AlreadyRunningError{InstanceKey: instanceKey}
	}

	started := Event{Kind: EventStarted, State: StateStarted, Variables: input.Clone(), At: time.Now().UTC()}
	if err := r.history.Append(ctx, instanceKey, started); err != nil {
		return nil, err
	}
	r.transition(instanceKey, StateStarted)
	return r.drive(ctx, instanceKey, []Event{started})
}

// Resume continues an instance from its journal.
func (r *Runner) Resume(ctx context.Context, instanceKey string) (*Outcome, error) {
	journal, err := r.history.Load(ctx, instanceKey)
	if err != nil {
		return nil, err
	}
	if len(journal) == 0 || journal[0].Kind != EventStarted {
		return nil, fmt.Errorf("no history for instance %s", instanceKey)
	}
	r.logger.Info("resuming instance", map[string]interface{}{
		"instanceKey": instanceKey,
		"events":      len(journal),
	})
	return r.drive(ctx, instanceKey, journal)
}

func (r *Runner) drive(ctx context.Context, instanceKey string, journal []Event) (*Outcome, error) {
	vars := journal[0].Variables.Clone()
	if vars == nil {
		vars = Variables{}
	}
	recorded := make(map[string]Event)
	for _, ev := range journal[1:] {
		switch ev.Kind {
		case EventStepCompleted, EventStepFailed:
			recorded[ev.Step] = ev
		case EventClosed:
			if ev.State == StateTerminated {
				return Terminated(instanceKey), nil
			}
		}
	}

	for _, step := range r.def.Steps {
		if step.When != nil && !step.When.Holds(vars) {
			continue
		}

		if ev, ok := recorded[step.TaskType]; ok {
			vars.Merge(ev.Variables)
			r.logger.Debug("replayed step", map[string]interface{}{
				"instanceKey": instanceKey,
				"taskType":    step.TaskType,
			})
			if ev.Kind == EventStepFailed && !step.Optional {
				return r.close(ctx, instanceKey, vars)
			}
		} else {
			if done, out, err := r.interrupted(ctx, instanceKey); done {
				return out, err
			}
			r.transition(instanceKey, step.State)

			output, attempts, err := r.execute(ctx, step, vars)
			if done, out, err := r.interrupted(ctx, instanceKey); done {
				return out, err
			}

			if err != nil {
				_, failure := Failure(step, err)
				failed := Variables(failure)
				if step.Optional {
					failed = Variables{step.FailureVariable: failure[VarFailure]}
				}
				failed, _ = Encode(failed)
				if err := r.record(ctx, instanceKey, Event{Kind: EventStepFailed, Step: step.TaskType, Variables: failed, Attempts: attempts}); err != nil {
					return nil, err
				}
				vars.Merge(failed)

				if !step.Optional {
					return r.close(ctx, instanceKey, vars)
				}
				r.logger.Warn("optional step failed, continuing", map[string]interface{}{
					"instanceKey": instanceKey,
					"taskType":    step.TaskType,
					"errorCode":   string(errors.CodeOf(err)),
				})
				continue
			}

			if err := r.record(ctx, instanceKey, Event{Kind: EventStepCompleted, Step: step.TaskType, Variables: output, Attempts: attempts}); err != nil {
				return nil, err
			}
			vars.Merge(output)
			r.logStepResult(instanceKey, step, output)
		}

		if step.ExitWhen != nil && step.ExitWhen.Condition.Holds(vars) {
			break
		}
	}

	return r.close(ctx, instanceKey, vars)
}

// interrupted reports whether ctx ended. An operator termination is
// journaled and turned into a Terminated outcome; anything else is a crash
// and returns the context error.
func (r *Runner) interrupted(ctx context.Context, instanceKey string) (bool, *Outcome, error) {
	if ctx.Err() == nil {
		return false, nil, nil
	}
	if !stderrors.Is(context.Cause(ctx), ErrTerminated) {
		r.logger.Warn("instance interrupted", map[string]interface{}{
			"instanceKey": instanceKey,
			"error":       ctx.Err(),
		})
		return true, nil, ctx.Err()
	}

	bg := context.WithoutCancel(ctx)
	if err := r.history.Append(bg, instanceKey, Event{Kind: EventClosed, State: StateTerminated, At: time.Now().UTC()}); err != nil {
		r.logger.Error("failed to journal termination", map[string]interface{}{
			"instanceKey": instanceKey,
			"error":       err,
		})
	}
	r.transition(instanceKey, StateTerminated)
	metrics.WorkflowOutcomes.WithLabelValues(string(StateTerminated)).Inc()
	return true, Terminated(instanceKey), nil
}

func (r *Runner) execute(ctx context.Context, step Step, vars Variables) (Variables, int, error) {
	act := r.activities[step.TaskType]
	for attempt := 1; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, step.Timeout)
		out, err := act.Run(actx, vars.Clone())
		cancel()

		if ctx.Err() != nil {
			return nil, attempt, ctx.Err()
		}
		if err == nil {
			encoded, encErr := Encode(out)
			return encoded, attempt, encErr
		}

		std := errors.Normalize(err)
		if !step.Policy.Retryable(std) || attempt >= step.Policy.MaximumAttempts {
			r.logger.Error("step failed", map[string]interface{}{
				"taskType":  step.TaskType,
				"attempts":  attempt,
				"errorCode": string(std.Code),
				"error":     err,
			})
			return nil, attempt, std
		}

		backoff := step.Policy.Backoff(attempt)
		r.logger.Warn("step attempt failed, retrying", map[string]interface{}{
			"taskType":  step.TaskType,
			"attempt":   attempt,
			"errorCode": string(std.Code),
			"backoff":   backoff.String(),
		})
		if err := r.sleep(ctx, backoff); err != nil {
			return nil, attempt, err
		}
	}
}

func (r *Runner) record(ctx context.Context, instanceKey string, ev Event) error {
	ev.At = time.Now().UTC()
	if err := r.history.Append(ctx, instanceKey, ev); err != nil {
		return fmt.Errorf("journal %s: %w", ev.Step, err)
	}
	return nil
}

func (r *Runner) close(ctx context.Context, instanceKey string, vars Variables) (*Outcome, error) {
	outcome, err := DecodeOutcome(instanceKey, vars)
	if err != nil {
		return nil, err
	}
	if err := r.history.Append(ctx, instanceKey, Event{Kind: EventClosed, State: outcome.State, At: time.Now().UTC()}); err != nil {
		return nil, err
	}
	r.transition(instanceKey, outcome.State)
	metrics.WorkflowOutcomes.WithLabelValues(string(outcome.State)).Inc()
	return outcome, nil
}

func (r *Runner) transition(instanceKey string, state State) {
	r.logger.Info("state transition", map[string]interface{}{
		"instanceKey": instanceKey,
		"state":       string(state),
	})
}

func (r *Runner) logStepResult(instanceKey string, step Step, output Variables) {
	fields := map[string]interface{}{
		"instanceKey": instanceKey,
		"taskType":    step.TaskType,
	}
	if verdict, ok := output[VarVerdict].(map[string]interface{}); ok {
		fields["decision"] = verdict["decision"]
		fields["reasonCode"] = verdict["reasonCode"]
	}
	r.logger.Info("step completed", fields)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
