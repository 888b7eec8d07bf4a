// internal/store/memory/store_test.go
package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"loan-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(id, identity string, decidedAt time.Time) *models.SubmissionRecord {
	return &models.SubmissionRecord{
		ID:        id,
		Identity:  identity,
		DecidedAt: decidedAt,
		Verdict:   models.Verdict{Decision: models.DecisionApproved},
	}
}

func TestStore_GetLatest(t *testing.T) {
	ctx := context.Background()
	s := New()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := s.GetLatest(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Put(ctx, "a@b.com", record("r2", "a@b.com", t0.Add(48*time.Hour))))
	require.NoError(t, s.Put(ctx, "a@b.com", record("r1", "a@b.com", t0)))

	got, err = s.GetLatest(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "r2", got.ID)

	got.ID = "mutated"
	again, _ := s.GetLatest(ctx, "a@b.com")
	assert.Equal(t, "r2", again.ID)
}

func TestStore_PutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New()
	rec := record("r1", "a@b.com", time.Now())

	require.NoError(t, s.Put(ctx, "a@b.com", rec))
	require.NoError(t, s.Put(ctx, "a@b.com", rec))

	assert.Len(t, s.Records("a@b.com"), 1)
	assert.Equal(t, 2, s.PutCalls())
}

func TestStore_ConcurrentIdentitiesDoNotInterfere(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity := fmt.Sprintf("user%d@b.com", i)
			_ = s.Put(ctx, identity, record(fmt.Sprintf("r%d", i), identity, now))
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		got, err := s.GetLatest(ctx, fmt.Sprintf("user%d@b.com", i))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("r%d", i), got.ID)
	}
}

func TestStore_ContactPreferenceUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.SaveContactPreference(ctx, models.ContactPreference{SubmissionID: "r1", ContactRequested: true}))
	require.NoError(t, s.SaveContactPreference(ctx, models.ContactPreference{SubmissionID: "r1", ContactRequested: false}))

	pref, ok := s.ContactPreference("r1")
	require.True(t, ok)
	assert.False(t, pref.ContactRequested)
}
