package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"loan-workers/internal/common/config"
	"loan-workers/internal/common/errors"
	"loan-workers/internal/loan"
	"loan-workers/internal/models"
	"loan-workers/internal/workflow"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localEnv(t *testing.T) *env {
	t.Helper()
	e, err := openLocal(newLogger(&rootOptions{logLevel: "error"}), workflow.NewMemoryHistory(), workflow.NewMemoryLocker())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestRunLoadTest_Local(t *testing.T) {
	e := localEnv(t)
	var buf bytes.Buffer

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	report := runLoadTest(ctx, e.starter, loadOptions{count: 5, concurrency: 2, runID: "t"}, &buf)

	assert.Equal(t, 5, report.Count)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 5, report.ByState[workflow.StateCompleted])
	assert.Greater(t, report.Throughput(), 0.0)
	assert.Contains(t, buf.String(), "Application 3: Completed")

	buf.Reset()
	report.Print(&buf)
	assert.Contains(t, buf.String(), "Total applications: 5")
	assert.Contains(t, buf.String(), "Completed:")
}

func TestRunLoadTest_RepeatedRunIsRejectedAsDuplicate(t *testing.T) {
	e := localEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	runLoadTest(ctx, e.starter, loadOptions{count: 2, runID: "same"}, &bytes.Buffer{})
	report := runLoadTest(ctx, e.starter, loadOptions{count: 2, runID: "same"}, &bytes.Buffer{})

	assert.Equal(t, 2, report.ByState[workflow.StateDuplicateRejected])
}

func TestLoadReport_ThroughputWithoutTime(t *testing.T) {
	assert.Zero(t, loadReport{Count: 3}.Throughput())
}

func TestPrintOutcome(t *testing.T) {
	catalog := loan.DefaultCatalog()
	tests := []struct {
		name    string
		outcome *workflow.Outcome
		want    []string
	}{
		{
			name: "approved",
			outcome: &workflow.Outcome{
				InstanceKey:  "loan-evaluation-jane-at-example.com",
				State:        workflow.StateCompleted,
				Verdict:      &models.Verdict{Decision: models.DecisionApproved, ReasonCode: models.ReasonMeetsAllCriteria},
				Message:      &models.DecisionMessage{Title: "Congratulations", Message: "Approved.", NextSteps: []string{"Sign"}},
				SubmissionID: "sub-1",
			},
			want: []string{"State:     Completed", "Decision:  approved", "Record:    sub-1", "Congratulations", "  - Sign"},
		},
		{
			name: "duplicate",
			outcome: &workflow.Outcome{
				State: workflow.StateDuplicateRejected,
				Err:   &workflow.DuplicateRejectedError{Identity: "jane@example.com", RemainingDays: 3},
			},
			want: []string{"DuplicateRejected", "3"},
		},
		{
			name: "invalid",
			outcome: &workflow.Outcome{
				State: workflow.StateInvalid,
				Err:   &workflow.ValidationError{Errors: []string{"email: is required", "loanAmount: must be positive"}},
			},
			want: []string{"The application is invalid:", "  - email: is required", "  - loanAmount: must be positive"},
		},
		{
			name: "failed",
			outcome: &workflow.Outcome{
				State: workflow.StateFailed,
				Err:   &workflow.FailedError{Step: "persist-submission", Code: errors.ErrCodeStoreUnavailable, Cause: "down"},
			},
			want: []string{"Processing failed at persist-submission (STORE_UNAVAILABLE): down"},
		},
		{
			name:    "terminated",
			outcome: workflow.Terminated("loan-evaluation-jane-at-example.com"),
			want:    []string{"cancelled by an operator"},
		},
		{
			name: "contact",
			outcome: &workflow.Outcome{
				State:   workflow.StateCompleted,
				Contact: &workflow.ContactResult{Title: "Preference saved", Message: "We will be in touch."},
			},
			want: []string{"Preference saved", "We will be in touch."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printOutcome(&buf, tt.outcome, "jane@example.com", catalog)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestRenderBPMN(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := renderBPMN(dir)

	require.NoError(t, err)
	require.Len(t, paths, len(workflow.Definitions()))
	data, err := os.ReadFile(filepath.Join(dir, "loan-evaluation.bpmn"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `zeebe:taskDefinition type="persist-submission"`)
}

func TestRequireZeebe_Local(t *testing.T) {
	_, err := localEnv(t).requireZeebe()
	assert.Error(t, err)
}

func TestRequireLocal(t *testing.T) {
	local, err := localEnv(t).requireLocal()
	require.NoError(t, err)
	assert.NotNil(t, local)

	_, err = (&env{}).requireLocal()
	assert.Error(t, err)
}

func TestResumeTarget(t *testing.T) {
	processID, key := resumeTarget(" Jane@Example.com ", false)
	assert.Equal(t, workflow.LoanEvaluationProcessID, processID)
	assert.Equal(t, loan.InstanceKey("jane@example.com"), key)

	processID, key = resumeTarget("jane@example.com", true)
	assert.Equal(t, workflow.ContactPreferenceProcessID, processID)
	assert.Equal(t, loan.ContactInstanceKey("jane@example.com"), key)
}

func TestOpenJournaled_UnknownJournal(t *testing.T) {
	_, err := openJournaled(context.Background(), &config.Config{}, "disk", newLogger(&rootOptions{logLevel: "error"}))
	assert.ErrorContains(t, err, "unknown journal")
}

func TestOpenJournaled_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Database.Redis.Address = mr.Addr()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	e, err := openJournaled(ctx, cfg, "redis", newLogger(&rootOptions{logLevel: "error"}))
	require.NoError(t, err)
	t.Cleanup(e.Close)

	h, err := e.starter.StartLoan(ctx, loadtestApplication("journal", 1))
	require.NoError(t, err)
	out, err := h.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateCompleted, out.State)
	assert.Empty(t, mr.Keys(), "finished instances leave no journal or lock behind")

	local, err := e.requireLocal()
	require.NoError(t, err)
	processID, key := resumeTarget("nobody@example.com", false)
	rh, err := local.Resume(ctx, processID, key)
	require.NoError(t, err)
	_, err = rh.Await(ctx)
	assert.Error(t, err)
}
