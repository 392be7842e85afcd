package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashleighh1991/acadamy-of-curiosity/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store on a single JSONB documents table
type PostgresStore struct {
	pool *pgxpool.Pool
	q    querier
	inTx bool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresStore creates a new PostgreSQL-backed document store
func NewPostgresStore(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{pool: pool, q: pool}, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	if s.pool != nil && !s.inTx {
		s.pool.Close()
	}
	return nil
}

// Create stores data under a generated id
func (s *PostgresStore) Create(ctx context.Context, collection string, data any) (string, error) {
	id := uuid.NewString()

	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.q.Exec(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
	`, collection, id, body)
	if err != nil {
		return "", externalErr("create document", err)
	}

	return id, nil
}

// Put stores data under id, replacing any previous document
func (s *PostgresStore) Put(ctx context.Context, collection, id string, data any) error {
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	_, err = s.q.Exec(ctx, `
		INSERT INTO documents (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE
		SET data = EXCLUDED.data, updated_at = NOW()
	`, collection, id, body)
	if err != nil {
		return externalErr("put document", err)
	}

	return nil
}

// Get decodes the document into dst
func (s *PostgresStore) Get(ctx context.Context, collection, id string, dst any) (bool, error) {
	var body []byte
	err := s.q.QueryRow(ctx, `
		SELECT data FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, externalErr("get document", err)
	}

	if err := json.Unmarshal(body, dst); err != nil {
		return true, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return true, nil
}

// Update shallow-merges patch into the stored document
func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch map[string]any, merge bool) error {
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal patch: %w", err)
	}

	if merge {
		_, err = s.q.Exec(ctx, `
			INSERT INTO documents (collection, id, data)
			VALUES ($1, $2, $3)
			ON CONFLICT (collection, id) DO UPDATE
			SET data = documents.data || EXCLUDED.data, updated_at = NOW()
		`, collection, id, body)
		if err != nil {
			return externalErr("merge document", err)
		}
		return nil
	}

	tag, err := s.q.Exec(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = NOW()
		WHERE collection = $1 AND id = $2
	`, collection, id, body)
	if err != nil {
		return externalErr("update document", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("document %s/%s: %w", collection, id, models.ErrNotFound)
	}
	return nil
}

// Delete removes a document
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return externalErr("delete document", err)
	}
	return nil
}

// timestampPattern matches the RFC 3339 text encoding/json writes for time.Time
const timestampPattern = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`

// Query returns the documents of a collection matching q.
// RFC 3339 timestamps are ordered as times, other fields by their text.
func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	query := `SELECT id, data FROM documents WHERE collection = $1`
	args := []any{collection}

	if len(q.Where) > 0 {
		match := make(map[string]any, len(q.Where))
		for _, f := range q.Where {
			match[f.Field] = f.Value
		}
		body, err := json.Marshal(match)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal filter: %w", err)
		}
		args = append(args, body)
		query += ` AND data @> $` + strconv.Itoa(len(args)) + `::jsonb`
	}

	if q.OrderBy != "" {
		args = append(args, q.OrderBy)
		field := `data->>$` + strconv.Itoa(len(args))
		dir := ``
		if q.Desc {
			dir = ` DESC`
		}
		query += ` ORDER BY CASE WHEN ` + field + ` ~ '` + timestampPattern + `' THEN (` + field + `)::timestamptz END` + dir +
			`, ` + field + dir + `, created_at`
	} else {
		query += ` ORDER BY created_at`
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.q.Query(ctx, query, args...)
	if err != nil {
		return nil, externalErr("query documents", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		var body []byte
		if err := rows.Scan(&doc.ID, &body); err != nil {
			return nil, externalErr("scan document", err)
		}
		doc.Data = body
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, externalErr("query documents", err)
	}
	return docs, nil
}

// RunInTx runs fn inside a serializable transaction
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if s.inTx {
		return fn(ctx, s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return externalErr("begin transaction", err)
	}

	if err := fn(ctx, &PostgresStore{pool: s.pool, q: tx, inTx: true}); err != nil {
		tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return externalErr("commit transaction", err)
	}
	return nil
}

func externalErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrExternalService, op, err)
}
