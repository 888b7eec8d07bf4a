// internal/loan/recorder.go
package loan

import (
	"context"
	"time"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/models"

	"github.com/google/uuid"
)

// recordNamespace scopes the name-based record ids.
var recordNamespace = uuid.MustParse("6f1c1f4e-3a0b-5d7e-9c55-0b7c2f1d8a41")

// RecordID derives a stable record id from identity and decision time, so a
// re-invoked persist writes the same key.
func RecordID(identity string, decidedAt time.Time) string {
	name := identity + "|" + decidedAt.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

// Recorder persists processed applications.
type Recorder struct {
	store  SubmissionStore
	audit  AuditSink
	logger logger.Logger
}

// NewRecorder creates a Recorder. audit may be nil.
func NewRecorder(store SubmissionStore, audit AuditSink, log logger.Logger) *Recorder {
	return &Recorder{
		store:  store,
		audit:  audit,
		logger: log.WithFields(map[string]interface{}{"component": "submission-recorder"}),
	}
}

// Persist writes the record for (identity, request, verdict, now). Invoking it
// again with the same arguments leaves the store unchanged.
func (r *Recorder) Persist(ctx context.Context, identity string, req models.ApplicationRequest, verdict models.Verdict, now time.Time) (*models.SubmissionRecord, error) {
	now = now.UTC()
	record := &models.SubmissionRecord{
		ID:        RecordID(identity, now),
		Identity:  identity,
		DecidedAt: now,
		Verdict:   verdict,
		Terms:     verdict.Terms,
		Request:   req,
	}

	if err := r.store.Put(ctx, identity, record); err != nil {
		return nil, errors.FromStoreError("put", err)
	}

	if r.audit != nil {
		if err := r.audit.IndexSubmission(ctx, record); err != nil {
			r.logger.Warn("audit index failed", map[string]interface{}{
				"submissionId": record.ID,
				"error":        err,
			})
		}
	}

	r.logger.Info("submission recorded", map[string]interface{}{
		"submissionId": record.ID,
		"identity":     identity,
		"decision":     string(verdict.Decision),
		"reasonCode":   string(verdict.ReasonCode),
	})
	return record, nil
}
