// internal/store/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"loan-workers/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS loan_submissions (
	id          UUID PRIMARY KEY,
	identity    TEXT        NOT NULL,
	decided_at  TIMESTAMPTZ NOT NULL,
	decision    TEXT        NOT NULL,
	reason_code TEXT        NOT NULL,
	verdict     JSONB       NOT NULL,
	terms       JSONB,
	request     JSONB       NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_loan_submissions_identity_decided
	ON loan_submissions (identity, decided_at DESC);
CREATE TABLE IF NOT EXISTS loan_contact_preferences (
	submission_id     UUID PRIMARY KEY REFERENCES loan_submissions (id),
	identity          TEXT        NOT NULL,
	contact_requested BOOLEAN     NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);`

// Store is the append-only submission store on PostgreSQL. Records are
// never updated; the newest decided_at per identity is the latest record.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure submission schema: %w", err)
	}
	return nil
}

func (s *Store) GetLatest(ctx context.Context, identity string) (*models.SubmissionRecord, error) {
	var rec models.SubmissionRecord
	var verdict, terms, req []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, identity, decided_at, verdict, terms, request
		FROM loan_submissions
		WHERE identity = $1
		ORDER BY decided_at DESC
		LIMIT 1
	`, identity).Scan(&rec.ID, &rec.Identity, &rec.DecidedAt, &verdict, &terms, &req)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest submission: %w", err)
	}

	if err := json.Unmarshal(verdict, &rec.Verdict); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	if len(terms) > 0 {
		rec.Terms = &models.LoanTerms{}
		if err := json.Unmarshal(terms, rec.Terms); err != nil {
			return nil, fmt.Errorf("decode terms: %w", err)
		}
	}
	if err := json.Unmarshal(req, &rec.Request); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	rec.DecidedAt = rec.DecidedAt.UTC()
	return &rec, nil
}

// Put inserts record; a second insert with the same id does nothing.
func (s *Store) Put(ctx context.Context, identity string, record *models.SubmissionRecord) error {
	verdict, err := json.Marshal(record.Verdict)
	if err != nil {
		return fmt.Errorf("encode verdict: %w", err)
	}
	req, err := json.Marshal(record.Request)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	var terms []byte
	if record.Terms != nil {
		if terms, err = json.Marshal(record.Terms); err != nil {
			return fmt.Errorf("encode terms: %w", err)
		}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO loan_submissions (id, identity, decided_at, decision, reason_code, verdict, terms, request)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, record.ID, identity, record.DecidedAt, string(record.Verdict.Decision), string(record.Verdict.ReasonCode), verdict, terms, req)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

// SaveContactPreference upserts the preference keyed by submission id.
func (s *Store) SaveContactPreference(ctx context.Context, pref models.ContactPreference) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loan_contact_preferences (submission_id, identity, contact_requested, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (submission_id) DO UPDATE
		SET contact_requested = EXCLUDED.contact_requested,
		    updated_at = EXCLUDED.updated_at
	`, pref.SubmissionID, pref.Identity, pref.ContactRequested, pref.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert contact preference: %w", err)
	}
	return nil
}
