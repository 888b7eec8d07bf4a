// internal/workflow/starter.go
package workflow

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"loan-workers/internal/common/camunda"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/loan"
	"loan-workers/internal/models"
)

// Starter begins workflow instances. Both processes are keyed by the
// applicant's identity, so a second start for the same person fails with
// *AlreadyRunningError until the first instance ends.
type Starter interface {
	StartLoan(ctx context.Context, req models.ApplicationRequest) (*Handle, error)
	StartContact(ctx context.Context, email string, requested bool) (*Handle, error)
}

// Handle tracks one started instance.
type Handle struct {
	InstanceKey string

	done    chan struct{}
	outcome *Outcome
	err     error
}

func newHandle(instanceKey string) *Handle {
	return &Handle{InstanceKey: instanceKey, done: make(chan struct{})}
}

func (h *Handle) finish(outcome *Outcome, err error) {
	h.outcome, h.err = outcome, err
	close(h.done)
}

// Await blocks until the instance ends or ctx is done. A non-nil error means
// the result could not be obtained; business rejections are reported through
// Outcome.Err.
func (h *Handle) Await(ctx context.Context) (*Outcome, error) {
	select {
	case <-h.done:
		return h.outcome, h.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// LoanVariables builds the start variables of a loan evaluation instance.
func LoanVariables(req models.ApplicationRequest, rules models.RuleSnapshot) (string, Variables, error) {
	identity := loan.NormalizeIdentity(req.Email)
	key := loan.InstanceKey(identity)
	vars, err := Encode(map[string]interface{}{
		VarApplication: req,
		VarIdentity:    identity,
		VarInstanceKey: key,
		VarRules:       rules,
	})
	return key, vars, err
}

// ContactVariables builds the start variables of a contact-preference instance.
func ContactVariables(email string, requested bool) (string, Variables) {
	identity := loan.NormalizeIdentity(email)
	key := loan.ContactInstanceKey(identity)
	return key, Variables{
		VarIdentity:         identity,
		VarInstanceKey:      key,
		VarContactRequested: requested,
	}
}

// InstanceCreator is the part of the Zeebe client a ZeebeStarter needs.
type InstanceCreator interface {
	CreateInstanceWithResult(ctx context.Context, processID string, variables interface{}, timeout time.Duration, fetch ...string) (int64, string, error)
	CancelInstance(ctx context.Context, processInstanceKey int64) error
}

// ZeebeStarter creates instances on the broker and awaits their result.
// The instance lock is released when a terminal result arrives; if the wait
// times out the lock is kept until its TTL because the instance may still be
// running.
type ZeebeStarter struct {
	creator       InstanceCreator
	locker        InstanceLocker
	rules         models.RuleSnapshot
	lockTTL       time.Duration
	resultTimeout time.Duration
	logger        logger.Logger
}

func NewZeebeStarter(creator InstanceCreator, locker InstanceLocker, rules models.RuleSnapshot, lockTTL, resultTimeout time.Duration, log logger.Logger) *ZeebeStarter {
	return &ZeebeStarter{
		creator:       creator,
		locker:        locker,
		rules:         rules,
		lockTTL:       lockTTL,
		resultTimeout: resultTimeout,
		logger:        log.WithFields(map[string]interface{}{"component": "zeebe-starter"}),
	}
}

func (s *ZeebeStarter) StartLoan(ctx context.Context, req models.ApplicationRequest) (*Handle, error) {
	key, vars, err := LoanVariables(req, s.rules)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, LoanEvaluationProcessID, key, vars)
}

func (s *ZeebeStarter) StartContact(ctx context.Context, email string, requested bool) (*Handle, error) {
	key, vars := ContactVariables(email, requested)
	return s.start(ctx, ContactPreferenceProcessID, key, vars)
}

// Terminate cancels a running instance on the broker. The starter awaiting
// it reports a Terminated outcome.
func (s *ZeebeStarter) Terminate(ctx context.Context, processInstanceKey int64) error {
	return s.creator.CancelInstance(ctx, processInstanceKey)
}

func (s *ZeebeStarter) start(ctx context.Context, processID, key string, vars Variables) (*Handle, error) {
	token, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}
	s.logger.Info("starting instance", map[string]interface{}{
		"processId":   processID,
		"instanceKey": key,
	})

	h := newHandle(key)
	runCtx := context.WithoutCancel(ctx)
	go func() {
		outcome, err := s.await(runCtx, processID, key, vars)
		if err == nil {
			if relErr := s.locker.Release(runCtx, key, token); relErr != nil {
				s.logger.Warn("failed to release instance lock", map[string]interface{}{
					"instanceKey": key,
					"error":       relErr,
				})
			}
		}
		h.finish(outcome, err)
	}()
	return h, nil
}

func (s *ZeebeStarter) await(ctx context.Context, processID, key string, vars Variables) (*Outcome, error) {
	processInstanceKey, doc, err := s.creator.CreateInstanceWithResult(ctx, processID, vars, s.resultTimeout, OutcomeVariables...)
	if err != nil {
		if instanceGone(err) {
			s.logger.Warn("instance terminated", map[string]interface{}{
				"instanceKey": key,
				"error":       err,
			})
			return Terminated(key), nil
		}
		return nil, fmt.Errorf("await %s: %w", key, err)
	}

	result, err := ParseVariables(doc)
	if err != nil {
		return nil, err
	}
	outcome, err := DecodeOutcome(key, result)
	if err != nil {
		return nil, err
	}
	s.logger.Info("instance finished", map[string]interface{}{
		"instanceKey":        key,
		"processInstanceKey": processInstanceKey,
		"state":              string(outcome.State),
	})
	return outcome, nil
}

// instanceGone reports whether the broker ended the instance before it
// produced a result, which happens when an operator cancels it.
func instanceGone(err error) bool {
	if camunda.IsNotFound(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "terminated") || strings.Contains(msg, "canceled") || strings.Contains(msg, "cancelled")
}

// LocalStarter runs instances in process with a Runner per process. Journals
// of finished instances are deleted; interrupted ones are kept for Resume.
type LocalStarter struct {
	runners map[string]*Runner
	locker  InstanceLocker
	history History
	rules   models.RuleSnapshot
	lockTTL time.Duration
	logger  logger.Logger

	mu      sync.Mutex
	running map[string]context.CancelCauseFunc
}

func NewLocalStarter(runners []*Runner, locker InstanceLocker, history History, rules models.RuleSnapshot, lockTTL time.Duration, log logger.Logger) *LocalStarter {
	byProcess := make(map[string]*Runner, len(runners))
	for _, r := range runners {
		byProcess[r.Definition().ProcessID] = r
	}
	return &LocalStarter{
		runners: byProcess,
		locker:  locker,
		history: history,
		rules:   rules,
		lockTTL: lockTTL,
		logger:  log.WithFields(map[string]interface{}{"component": "local-starter"}),
		running: make(map[string]context.CancelCauseFunc),
	}
}

func (s *LocalStarter) StartLoan(ctx context.Context, req models.ApplicationRequest) (*Handle, error) {
	key, vars, err := LoanVariables(req, s.rules)
	if err != nil {
		return nil, err
	}
	return s.launch(ctx, LoanEvaluationProcessID, key, func(r *Runner, runCtx context.Context) (*Outcome, error) {
		return r.Start(runCtx, key, vars)
	})
}

func (s *LocalStarter) StartContact(ctx context.Context, email string, requested bool) (*Handle, error) {
	key, vars := ContactVariables(email, requested)
	return s.launch(ctx, ContactPreferenceProcessID, key, func(r *Runner, runCtx context.Context) (*Outcome, error) {
		return r.Start(runCtx, key, vars)
	})
}

// Resume continues an interrupted instance from its journal.
func (s *LocalStarter) Resume(ctx context.Context, processID, key string) (*Handle, error) {
	return s.launch(ctx, processID, key, func(r *Runner, runCtx context.Context) (*Outcome, error) {
		return r.Resume(runCtx, key)
	})
}

// Terminate cancels a running instance; its Handle reports a Terminated outcome.
func (s *LocalStarter) Terminate(key string) error {
	s.mu.Lock()
	cancel, ok := s.running[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("instance %s is not running", key)
	}
	cancel(ErrTerminated)
	return nil
}

func (s *LocalStarter) launch(ctx context.Context, processID, key string, run func(*Runner, context.Context) (*Outcome, error)) (*Handle, error) {
	runner, ok := s.runners[processID]
	if !ok {
		return nil, fmt.Errorf("no runner for process %s", processID)
	}
	token, err := s.locker.Acquire(ctx, key, s.lockTTL)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.running[key] = cancel
	s.mu.Unlock()

	h := newHandle(key)
	go func() {
		outcome, err := run(runner, runCtx)

		s.mu.Lock()
		delete(s.running, key)
		s.mu.Unlock()
		cancel(nil)

		bg := context.WithoutCancel(ctx)
		if err == nil {
			if delErr := s.history.Delete(bg, key); delErr != nil {
				s.logger.Warn("failed to delete journal", map[string]interface{}{"instanceKey": key, "error": delErr})
			}
		}
		if relErr := s.locker.Release(bg, key, token); relErr != nil {
			s.logger.Warn("failed to release instance lock", map[string]interface{}{"instanceKey": key, "error": relErr})
		}
		h.finish(outcome, err)
	}()
	return h, nil
}

// IsAlreadyRunning reports whether err rejects a start because an instance
// with the same key is live.
func IsAlreadyRunning(err error) bool {
	var running *AlreadyRunningError
	return stderrors.As(err, &running)
}
