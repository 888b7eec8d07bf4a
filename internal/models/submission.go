// internal/models/submission.go
package models

import "time"

// SubmissionRecord is the persisted result of a processed application.
// Records are never updated; a later submission adds a newer record.
type SubmissionRecord struct {
	ID        string             `json:"id"`
	Identity  string             `json:"identity"`
	DecidedAt time.Time          `json:"decidedAt"`
	Verdict   Verdict            `json:"verdict"`
	Terms     *LoanTerms         `json:"terms,omitempty"`
	Request   ApplicationRequest `json:"request"`
}

// DuplicateCheck is the Duplicate Guard result for one identity at one instant.
type DuplicateCheck struct {
	IsDuplicate       bool       `json:"isDuplicate"`
	Identity          string     `json:"identity"`
	PriorSubmissionID string     `json:"priorSubmissionId,omitempty"`
	PriorDecidedAt    *time.Time `json:"priorDecidedAt,omitempty"`
	RemainingSeconds  int64      `json:"remainingSeconds,omitempty"`
	RemainingDays     int        `json:"remainingDays,omitempty"`
	CheckedAt         time.Time  `json:"checkedAt"`
}

// Remaining returns the rest of the cooldown window.
func (d DuplicateCheck) Remaining() time.Duration {
	return time.Duration(d.RemainingSeconds) * time.Second
}

// ContactPreference records whether an applicant asked to be contacted about
// a submission. It is stored next to the submission, keyed by its id.
type ContactPreference struct {
	SubmissionID     string    `json:"submissionId"`
	Identity         string    `json:"identity"`
	ContactRequested bool      `json:"contactRequested"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
