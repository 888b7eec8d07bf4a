// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"loan-workers/internal/common/config"
	"loan-workers/internal/common/errors"

	_ "github.com/lib/pq"
)

const (
	defaultMaxOpen = 10
	defaultMaxIdle = 2
)

// PostgresClient holds the pool backing the submission and contact
// preference tables.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the submission database. The pool is lazy; call Ping to
// verify connectivity.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	dsn := cfg.GetDSN() + " application_name=loan-workers connect_timeout=5"
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open submission database: %w", err)
	}

	maxOpen, maxIdle := cfg.MaxConnections, cfg.MaxIdle
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	if maxIdle <= 0 || maxIdle > maxOpen {
		maxIdle = defaultMaxIdle
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

// Ping reports an unreachable database as a retryable store error.
func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return errors.FromStoreError("postgres ping", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
