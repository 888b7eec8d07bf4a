// internal/common/database/redis.go
package database

import (
	"context"
	"time"

	"loan-workers/internal/common/config"
	"loan-workers/internal/common/errors"

	"github.com/redis/go-redis/v9"
)

// RedisClient is shared by the latest-submission cache, the instance
// registry and the local runner journal.
type RedisClient struct {
	Client *redis.Client
}

func NewRedis(cfg config.RedisConfig) *RedisClient {
	return &RedisClient{Client: redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "loan-workers",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     20,
		MinIdleConns: 2,
	})}
}

// Ping reports an unreachable server as a retryable store error.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return errors.FromStoreError("redis ping", err)
	}
	return nil
}

func (c *RedisClient) Close() error {
	if c.Client == nil {
		return nil
	}
	return c.Client.Close()
}
