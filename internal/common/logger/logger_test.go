package logger

import (
	stderrors "errors"
	"testing"
	"time"

	"loan-workers/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapAdapter(zap.New(core)), logs
}

func TestWithError_AddsCodeForClassifiedErrors(t *testing.T) {
	log, logs := observed()

	log.WithError(errors.NewStoreUnavailableError("get latest", stderrors.New("refused"))).Warn("lookup failed", nil)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "STORE_UNAVAILABLE", fields["errorCode"])
	assert.Equal(t, true, fields["errorRetryable"])
}

func TestWithError_PlainError(t *testing.T) {
	log, logs := observed()

	log.WithError(stderrors.New("boom")).Error("failed", nil)

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "boom", fields["error"])
	assert.NotContains(t, fields, "errorCode")
}

func TestFields_TypedValues(t *testing.T) {
	log, logs := observed()

	log.Info("step completed", map[string]interface{}{
		"taskType": "persist-submission",
		"elapsed":  1500 * time.Millisecond,
		"cause":    errors.NewSubmissionNotFoundError("a@b.c"),
	})

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "persist-submission", fields["taskType"])
	assert.Equal(t, 1500*time.Millisecond, fields["elapsed"])
	assert.Equal(t, "SUBMISSION_NOT_FOUND", fields["causeCode"])
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := New("loud", "json", "stderr")
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))

	assert.True(t, New("debug", "console", "stderr").Core().Enabled(zapcore.DebugLevel))
}
