// internal/store/rediscache/store.go
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"loan-workers/internal/common/logger"
	"loan-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loan:submission:latest:"

// Backend is the authoritative submission store behind the cache.
type Backend interface {
	GetLatest(ctx context.Context, identity string) (*models.SubmissionRecord, error)
	Put(ctx context.Context, identity string, record *models.SubmissionRecord) error
}

// storeIfNewer keeps the cached record only moving forward: a record is
// written unless the entry already holds one decided later. KEYS[1] is the
// entry; ARGV is decidedAt in unix milliseconds, the record JSON and the TTL
// in milliseconds (0 for none).
var storeIfNewer = redis.NewScript(`
local current = redis.call("HGET", KEYS[1], "decidedAt")
if current and tonumber(current) > tonumber(ARGV[1]) then
  return 0
end
redis.call("HSET", KEYS[1], "decidedAt", ARGV[1], "record", ARGV[2])
if tonumber(ARGV[3]) > 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[3])
end
return 1
`)

// Store is a read-through, write-through cache of the latest record per
// identity. Every cache write goes through storeIfNewer, so a slow read that
// races a Put cannot put an older record back. Cache errors are logged and
// never fail the call; a failed write after Put drops the entry instead.
type Store struct {
	next   Backend
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func New(next Backend, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "submission-cache"}),
	}
}

func cacheKey(identity string) string {
	return keyPrefix + identity
}

func (s *Store) GetLatest(ctx context.Context, identity string) (*models.SubmissionRecord, error) {
	raw, err := s.rdb.HGet(ctx, cacheKey(identity), "record").Bytes()
	switch {
	case err == nil:
		var rec models.SubmissionRecord
		if jsonErr := json.Unmarshal(raw, &rec); jsonErr == nil {
			return &rec, nil
		}
		s.logger.Warn("discarding unreadable cache entry", map[string]interface{}{"identity": identity})
	case err != redis.Nil:
		s.logger.Warn("cache read failed", map[string]interface{}{"identity": identity, "error": err})
	}

	rec, err := s.next.GetLatest(ctx, identity)
	if err != nil || rec == nil {
		return rec, err
	}
	if err := s.cache(ctx, identity, rec); err != nil {
		s.logger.Warn("cache write failed", map[string]interface{}{"identity": identity, "error": err})
	}
	return rec, nil
}

func (s *Store) Put(ctx context.Context, identity string, record *models.SubmissionRecord) error {
	if err := s.next.Put(ctx, identity, record); err != nil {
		return err
	}
	if err := s.cache(ctx, identity, record); err != nil {
		s.logger.Warn("cache write failed, dropping entry", map[string]interface{}{"identity": identity, "error": err})
		if delErr := s.rdb.Del(ctx, cacheKey(identity)).Err(); delErr != nil {
			s.logger.Warn("cache invalidation failed", map[string]interface{}{"identity": identity, "error": delErr})
		}
	}
	return nil
}

func (s *Store) cache(ctx context.Context, identity string, rec *models.SubmissionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return storeIfNewer.Run(ctx, s.rdb, []string{cacheKey(identity)},
		rec.DecidedAt.UnixMilli(), string(payload), s.ttl.Milliseconds()).Err()
}
