// internal/loan/guard.go
package loan

import (
	"context"
	"math"
	"time"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/common/logger"
	"loan-workers/internal/models"
)

// DuplicateGuard rejects a new submission while the identity's latest record
// is still inside the cooldown window. It only reads from the store.
type DuplicateGuard struct {
	store  SubmissionStore
	logger logger.Logger
}

func NewDuplicateGuard(store SubmissionStore, log logger.Logger) *DuplicateGuard {
	return &DuplicateGuard{
		store:  store,
		logger: log.WithFields(map[string]interface{}{"component": "duplicate-guard"}),
	}
}

// Check reports whether identity has a prior submission younger than window
// at now. A record is a duplicate while now-decidedAt < window, so a record
// exactly window old no longer blocks. Remaining is window-(now-decidedAt),
// capped at window for records stamped after now.
func (g *DuplicateGuard) Check(ctx context.Context, identity string, now time.Time, window time.Duration) (*models.DuplicateCheck, error) {
	result := &models.DuplicateCheck{
		Identity:  identity,
		CheckedAt: now,
	}

	prior, err := g.store.GetLatest(ctx, identity)
	if err != nil {
		return nil, errors.FromStoreError("get_latest", err)
	}
	if prior == nil {
		return result, nil
	}

	elapsed := now.Sub(prior.DecidedAt)
	if elapsed >= window {
		g.logger.Debug("prior submission outside cooldown window", map[string]interface{}{
			"identity":     identity,
			"submissionId": prior.ID,
			"elapsed":      elapsed.String(),
		})
		return result, nil
	}

	remaining := window - elapsed
	if remaining > window {
		remaining = window
	}

	decidedAt := prior.DecidedAt
	result.IsDuplicate = true
	result.PriorSubmissionID = prior.ID
	result.PriorDecidedAt = &decidedAt
	result.RemainingSeconds = int64(math.Ceil(remaining.Seconds()))
	result.RemainingDays = RemainingDays(remaining)

	g.logger.Info("duplicate submission detected", map[string]interface{}{
		"identity":      identity,
		"submissionId":  prior.ID,
		"remainingDays": result.RemainingDays,
	})
	return result, nil
}

// RemainingDays rounds a remaining cooldown up to whole days.
func RemainingDays(remaining time.Duration) int {
	if remaining <= 0 {
		return 0
	}
	return int(math.Ceil(remaining.Hours() / 24))
}
