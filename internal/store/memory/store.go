// internal/store/memory/store.go
package memory

import (
	"context"
	"sync"

	"loan-workers/internal/models"
)

// Store keeps submission records and contact preferences in process memory.
// It backs local runs and tests.
type Store struct {
	mu          sync.RWMutex
	byIdentity  map[string][]*models.SubmissionRecord
	byID        map[string]*models.SubmissionRecord
	preferences map[string]models.ContactPreference
	puts        int
}

func New() *Store {
	return &Store{
		byIdentity:  make(map[string][]*models.SubmissionRecord),
		byID:        make(map[string]*models.SubmissionRecord),
		preferences: make(map[string]models.ContactPreference),
	}
}

// GetLatest returns a copy of the newest record for identity, or nil.
func (s *Store) GetLatest(_ context.Context, identity string) (*models.SubmissionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.SubmissionRecord
	for _, rec := range s.byIdentity[identity] {
		if latest == nil || rec.DecidedAt.After(latest.DecidedAt) {
			latest = rec
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

// Put appends record unless its id is already stored.
func (s *Store) Put(_ context.Context, identity string, record *models.SubmissionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.puts++
	if _, exists := s.byID[record.ID]; exists {
		return nil
	}
	cp := *record
	s.byID[cp.ID] = &cp
	s.byIdentity[identity] = append(s.byIdentity[identity], &cp)
	return nil
}

// SaveContactPreference upserts the preference for its submission.
func (s *Store) SaveContactPreference(_ context.Context, pref models.ContactPreference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preferences[pref.SubmissionID] = pref
	return nil
}

// ContactPreference returns the stored preference for a submission.
func (s *Store) ContactPreference(submissionID string) (models.ContactPreference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pref, ok := s.preferences[submissionID]
	return pref, ok
}

// Records returns every record stored for identity in insertion order.
func (s *Store) Records(identity string) []models.SubmissionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SubmissionRecord, 0, len(s.byIdentity[identity]))
	for _, rec := range s.byIdentity[identity] {
		out = append(out, *rec)
	}
	return out
}

// PutCalls counts Put invocations, including no-op repeats.
func (s *Store) PutCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puts
}
