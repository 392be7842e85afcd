package health

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// PostgresChecker pings PostgreSQL over a dedicated database/sql pool
type PostgresChecker struct {
	db *sql.DB
}

// NewPostgresChecker opens a small lib/pq pool for readiness probes
func NewPostgresChecker(dsn string) (*PostgresChecker, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return &PostgresChecker{db: db}, nil
}

// Check runs a trivial query
func (c *PostgresChecker) Check(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("postgres unavailable: %w", err)
	}
	return nil
}

// Close closes the probe pool
func (c *PostgresChecker) Close() error {
	return c.db.Close()
}

// RedisChecker pings Redis
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a checker on an existing client
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Check sends PING
func (c *RedisChecker) Check(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unavailable: %w", err)
	}
	return nil
}
