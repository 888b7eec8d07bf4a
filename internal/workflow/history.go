// internal/workflow/history.go
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventKind classifies a journal entry.
type EventKind string

const (
	EventStarted       EventKind = "started"
	EventStepCompleted EventKind = "step_completed"
	EventStepFailed    EventKind = "step_failed"
	EventClosed        EventKind = "closed"
)

// Event is one durable journal entry of an instance.
type Event struct {
	Kind      EventKind `json:"kind"`
	Step      string    `json:"step,omitempty"`
	Variables Variables `json:"variables,omitempty"`
	State     State     `json:"state,omitempty"`
	Attempts  int       `json:"attempts,omitempty"`
	At        time.Time `json:"at"`
}

// History is the journal the in-process runner replays after a restart.
// Append must be durable before it returns.
type History interface {
	Load(ctx context.Context, instanceKey string) ([]Event, error)
	Append(ctx context.Context, instanceKey string, event Event) error
	Delete(ctx context.Context, instanceKey string) error
}

// MemoryHistory keeps journals in memory. It survives runner restarts
// within one process, which is what tests need.
type MemoryHistory struct {
	mu       sync.Mutex
	journals map[string][]Event
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{journals: make(map[string][]Event)}
}

func (h *MemoryHistory) Load(_ context.Context, instanceKey string) ([]Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Event(nil), h.journals[instanceKey]...), nil
}

func (h *MemoryHistory) Append(_ context.Context, instanceKey string, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	event.Variables = event.Variables.Clone()
	h.journals[instanceKey] = append(h.journals[instanceKey], event)
	return nil
}

func (h *MemoryHistory) Delete(_ context.Context, instanceKey string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.journals, instanceKey)
	return nil
}

const historyKeyPrefix = "loan:history:"

// RedisHistory stores each journal as a Redis list of JSON events.
type RedisHistory struct {
	rdb redis.Cmdable
}

func NewRedisHistory(rdb redis.Cmdable) *RedisHistory {
	return &RedisHistory{rdb: rdb}
}

func (h *RedisHistory) Load(ctx context.Context, instanceKey string) ([]Event, error) {
	raw, err := h.rdb.LRange(ctx, historyKeyPrefix+instanceKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", instanceKey, err)
	}
	events := make([]Event, 0, len(raw))
	for _, item := range raw {
		var e Event
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("decode history %s: %w", instanceKey, err)
		}
		events = append(events, e)
	}
	return events, nil
}

func (h *RedisHistory) Append(ctx context.Context, instanceKey string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode history event: %w", err)
	}
	if err := h.rdb.RPush(ctx, historyKeyPrefix+instanceKey, payload).Err(); err != nil {
		return fmt.Errorf("append history %s: %w", instanceKey, err)
	}
	return nil
}

func (h *RedisHistory) Delete(ctx context.Context, instanceKey string) error {
	return h.rdb.Del(ctx, historyKeyPrefix+instanceKey).Err()
}
