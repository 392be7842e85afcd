package storage

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("ACADEMY_TEST_DSN")
	if dsn == "" {
		t.Skip("ACADEMY_TEST_DSN not set, skipping")
	}

	ctx := context.Background()
	require.NoError(t, MigrateFromDSN(ctx, dsn, ""))

	runStoreSuite(t, func(t *testing.T) Store {
		pool, err := pgxpool.New(ctx, dsn)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, `TRUNCATE documents`)
		pool.Close()
		require.NoError(t, err)

		s, err := NewPostgresStore(ctx, PostgresConfig{DSN: dsn, MaxOpenConns: 4, MaxIdleConns: 1})
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
