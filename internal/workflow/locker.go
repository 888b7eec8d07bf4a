// internal/workflow/locker.go
package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// InstanceLocker guarantees at most one running instance per key across
// starters. Acquire returns *AlreadyRunningError while the key is held.
type InstanceLocker interface {
	Acquire(ctx context.Context, instanceKey string, ttl time.Duration) (string, error)
	Release(ctx context.Context, instanceKey, token string) error
}

const lockKeyPrefix = "loan:instance:"

// releaseScript deletes the lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds instance keys in Redis with SET NX and a TTL, so a
// crashed starter's lock expires on its own.
type RedisLocker struct {
	rdb redis.Cmdable
}

func NewRedisLocker(rdb redis.Cmdable) *RedisLocker {
	return &RedisLocker{rdb: rdb}
}

func (l *RedisLocker) Acquire(ctx context.Context, instanceKey string, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	acquired, err := l.rdb.SetNX(ctx, lockKeyPrefix+instanceKey, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !acquired {
		return "", &AlreadyRunningError{InstanceKey: instanceKey}
	}
	return token, nil
}

func (l *RedisLocker) Release(ctx context.Context, instanceKey, token string) error {
	return releaseScript.Run(ctx, l.rdb, []string{lockKeyPrefix + instanceKey}, token).Err()
}

// MemoryLocker is an in-process InstanceLocker.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLock
	clock func() time.Time
}

type memoryLock struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryLock), clock: time.Now}
}

func (l *MemoryLocker) Acquire(_ context.Context, instanceKey string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if cur, ok := l.held[instanceKey]; ok && now.Before(cur.expires) {
		return "", &AlreadyRunningError{InstanceKey: instanceKey}
	}
	token := uuid.NewString()
	l.held[instanceKey] = memoryLock{token: token, expires: now.Add(ttl)}
	return token, nil
}

func (l *MemoryLocker) Release(_ context.Context, instanceKey, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.held[instanceKey]; ok && cur.token == token {
		delete(l.held, instanceKey)
	}
	return nil
}
