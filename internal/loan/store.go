// internal/loan/store.go
package loan

import (
	"context"
	"time"

	"loan-workers/internal/models"
)

// SubmissionStore is the persistence contract for submission records.
// Both operations must be safe to retry. GetLatest returns (nil, nil) when the
// identity has no record. Put with an existing record id is a no-op.
type SubmissionStore interface {
	GetLatest(ctx context.Context, identity string) (*models.SubmissionRecord, error)
	Put(ctx context.Context, identity string, record *models.SubmissionRecord) error
}

// ContactPreferenceStore upserts contact preferences keyed by submission id.
type ContactPreferenceStore interface {
	SaveContactPreference(ctx context.Context, pref models.ContactPreference) error
}

// AuditSink mirrors persisted records to a secondary index.
type AuditSink interface {
	IndexSubmission(ctx context.Context, record *models.SubmissionRecord) error
}

// Clock returns the current time. Activities take it as a dependency so
// tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock in UTC.
func SystemClock() time.Time {
	return time.Now().UTC()
}
