package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps one row per collection holding the whole document
// array as jsonb. Save is a single upsert statement.
type PostgresBackend struct {
	pool *pgxpool.Pool
}

func NewPostgresBackend(pool *pgxpool.Pool) *PostgresBackend {
	return &PostgresBackend{pool: pool}
}

func (b *PostgresBackend) EnsureSchema(ctx context.Context) error {
	const query = `
		CREATE TABLE IF NOT EXISTS collections (
			name       TEXT PRIMARY KEY,
			documents  JSONB NOT NULL DEFAULT '[]'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	if _, err := b.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create collections table: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Load(ctx context.Context, collection string) ([]Document, error) {
	const query = `SELECT documents FROM collections WHERE name = $1`

	var raw []byte
	if err := b.pool.QueryRow(ctx, query, collection).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select %s: %w", collection, err)
	}

	var docs []Document
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, collection, err)
	}
	return docs, nil
}

func (b *PostgresBackend) Save(ctx context.Context, collection string, docs []Document) error {
	if docs == nil {
		docs = []Document{}
	}
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode %s: %w", collection, err)
	}

	const query = `
		INSERT INTO collections (name, documents, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (name)
		DO UPDATE SET
			documents = EXCLUDED.documents,
			updated_at = NOW()
	`
	if _, err := b.pool.Exec(ctx, query, collection, string(data)); err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	return nil
}

// Lock holds a session-level advisory lock keyed by the collection name on a
// dedicated connection, so every process using the same database serializes
// its read-modify-write cycles on that collection. The pool must have more
// connections than there are collections.
func (b *PostgresBackend) Lock(ctx context.Context, collection string) (func(), error) {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire lock conn: %w", err)
	}
	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock(hashtext($1))`, collection); err != nil {
		conn.Release()
		return nil, fmt.Errorf("advisory lock %s: %w", collection, err)
	}
	return func() {
		if _, err := conn.Exec(context.Background(), `SELECT pg_advisory_unlock(hashtext($1))`, collection); err != nil {
			// The lock dies with the session, so drop the connection.
			_ = conn.Conn().Close(context.Background())
		}
		conn.Release()
	}, nil
}
