package workers

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/loan"
	"loan-workers/internal/models"
	"loan-workers/internal/notify"
	"loan-workers/internal/store/memory"
	notifyloanagent "loan-workers/internal/workers/loan/notify-loan-agent"
	"loan-workers/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, models.AgentNotification, time.Time) (*models.NotificationReceipt, error) {
	f.calls++
	return nil, errors.NewNotificationSendFailedError("ses", stderrors.New("throttled"))
}

type env struct {
	store   *memory.Store
	starter *workflow.LocalStarter
	clock   *time.Time
}

func setup(t *testing.T, notifier notifyloanagent.Notifier) *env {
	t.Helper()
	log := logger.NewTestLogger(t)
	store := memory.New()
	clock := now
	if notifier == nil {
		notifier = notify.NewAgentNotifier(notify.Config{}, nil, nil, log)
	}

	defs := workflow.Definitions()
	handlers, err := Build(defs, Dependencies{
		Submissions: store,
		Preferences: store,
		Notifier:    notifier,
		Clock:       func() time.Time { return clock },
	}, log)
	require.NoError(t, err)

	history := workflow.NewMemoryHistory()
	noSleep := workflow.WithSleep(func(context.Context, time.Duration) error { return nil })
	runners, err := Runners(defs, handlers, history, log, noSleep)
	require.NoError(t, err)

	starter := workflow.NewLocalStarter(runners, workflow.NewMemoryLocker(), history, loan.DefaultRules(), time.Minute, log)
	return &env{store: store, starter: starter, clock: &clock}
}

func (e *env) submit(t *testing.T, req models.ApplicationRequest) *workflow.Outcome {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h, err := e.starter.StartLoan(ctx, req)
	require.NoError(t, err)
	out, err := h.Await(ctx)
	require.NoError(t, err)
	return out
}

func applicant(score int, amount, income float64) models.ApplicationRequest {
	return models.ApplicationRequest{
		Name:         "Jane Doe",
		Email:        "Jane@Example.com",
		LoanAmount:   amount,
		CreditScore:  score,
		AnnualIncome: income,
	}
}

func TestBuild_CoversEveryTaskType(t *testing.T) {
	store := memory.New()
	handlers, err := Build(workflow.Definitions(), Dependencies{
		Submissions: store,
		Preferences: store,
		Notifier:    notify.NewAgentNotifier(notify.Config{}, nil, nil, logger.NewNoOpLogger()),
	}, logger.NewNoOpLogger())
	require.NoError(t, err)

	for _, def := range workflow.Definitions() {
		for _, taskType := range def.TaskTypes() {
			assert.Contains(t, handlers, taskType)
		}
	}
}

func TestBuild_MissingDependency(t *testing.T) {
	_, err := Build(workflow.Definitions(), Dependencies{}, logger.NewNoOpLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs a submission store")
}

func TestLoanEvaluation_Approved(t *testing.T) {
	e := setup(t, nil)

	out := e.submit(t, applicant(780, 50000, 100000))

	require.NoError(t, out.Err)
	assert.Equal(t, workflow.StateCompleted, out.State)
	assert.Equal(t, models.DecisionApproved, out.Verdict.Decision)
	require.NotNil(t, out.Message)
	assert.NotEmpty(t, out.SubmissionID)
	assert.Nil(t, out.Notification)
	assert.Len(t, e.store.Records("jane@example.com"), 1)
}

func TestLoanEvaluation_ConditionalNotifiesAgent(t *testing.T) {
	e := setup(t, nil)

	out := e.submit(t, applicant(680, 60000, 100000))

	require.NoError(t, out.Err)
	assert.Equal(t, models.DecisionConditionallyApproved, out.Verdict.Decision)
	require.NotNil(t, out.Notification)
	assert.Equal(t, models.NotificationStatusDisabled, out.Notification.Status)
}

func TestLoanEvaluation_NotificationFailureStillCompletes(t *testing.T) {
	notifier := &failingNotifier{}
	e := setup(t, notifier)

	out := e.submit(t, applicant(680, 60000, 100000))

	require.NoError(t, out.Err)
	assert.Equal(t, workflow.StateCompleted, out.State)
	assert.Equal(t, 3, notifier.calls)
	assert.Len(t, e.store.Records("jane@example.com"), 1)
}

func TestLoanEvaluation_DuplicateWithinCooldown(t *testing.T) {
	e := setup(t, nil)
	first := e.submit(t, applicant(780, 50000, 100000))
	require.NoError(t, first.Err)

	*e.clock = now.Add(48 * time.Hour)
	second := e.submit(t, applicant(780, 50000, 100000))

	assert.Equal(t, workflow.StateDuplicateRejected, second.State)
	var dup *workflow.DuplicateRejectedError
	require.ErrorAs(t, second.Err, &dup)
	assert.Equal(t, 5, dup.RemainingDays)
	assert.Len(t, e.store.Records("jane@example.com"), 1)
}

func TestLoanEvaluation_ResubmitAfterCooldown(t *testing.T) {
	e := setup(t, nil)
	require.NoError(t, e.submit(t, applicant(600, 50000, 100000)).Err)

	*e.clock = now.Add(8 * 24 * time.Hour)
	out := e.submit(t, applicant(780, 50000, 100000))

	require.NoError(t, out.Err)
	assert.Equal(t, models.DecisionApproved, out.Verdict.Decision)
	assert.Len(t, e.store.Records("jane@example.com"), 2)
}

func TestLoanEvaluation_Invalid(t *testing.T) {
	e := setup(t, nil)

	out := e.submit(t, applicant(200, -5, 100000))

	assert.Equal(t, workflow.StateInvalid, out.State)
	var invalid *workflow.ValidationError
	require.ErrorAs(t, out.Err, &invalid)
	assert.GreaterOrEqual(t, len(invalid.Errors), 2)
	assert.Empty(t, e.store.Records("jane@example.com"))
}

func TestContactPreference_RecordsLatestSubmission(t *testing.T) {
	e := setup(t, nil)
	loanOut := e.submit(t, applicant(780, 50000, 100000))
	require.NoError(t, loanOut.Err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h, err := e.starter.StartContact(ctx, "jane@example.com", true)
	require.NoError(t, err)
	out, err := h.Await(ctx)
	require.NoError(t, err)

	require.NoError(t, out.Err)
	require.NotNil(t, out.Contact)
	assert.True(t, out.Contact.Preference.ContactRequested)
	assert.Equal(t, loanOut.SubmissionID, out.Contact.Preference.SubmissionID)

	pref, ok := e.store.ContactPreference(loanOut.SubmissionID)
	require.True(t, ok)
	assert.True(t, pref.ContactRequested)
}

func TestContactPreference_WithoutSubmissionFails(t *testing.T) {
	e := setup(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	h, err := e.starter.StartContact(ctx, "nobody@example.com", false)
	require.NoError(t, err)
	out, err := h.Await(ctx)
	require.NoError(t, err)

	assert.Equal(t, workflow.StateFailed, out.State)
	var failed *workflow.FailedError
	require.ErrorAs(t, out.Err, &failed)
	assert.Equal(t, errors.ErrCodeSubmissionNotFound, failed.Code)
}
