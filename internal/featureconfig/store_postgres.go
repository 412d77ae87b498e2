package featureconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pgExecutor is the slice of pgxpool.Pool the store needs.
type pgExecutor interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresStore keeps the document as a single row. The table holds at most
// one row; every Save upserts the whole payload.
//
//	CREATE TABLE IF NOT EXISTS feature_config (
//	    id SMALLINT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
//	    payload JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PostgresStore struct {
	db pgExecutor
}

// NewPostgresStore creates a postgres-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// Load reads the stored document. An empty table or an undecodable payload
// returns ErrNoDocument; transport failures are surfaced as errors.
func (s *PostgresStore) Load(ctx context.Context) (Document, error) {
	var data []byte
	err := s.db.QueryRow(ctx, `SELECT payload FROM feature_config WHERE id = 1`).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, ErrNoDocument
	}
	if err != nil {
		return Document{}, fmt.Errorf("featureconfig: postgres select: %w", err)
	}
	doc, err := DecodeDocument(data)
	if err != nil {
		return Document{}, ErrNoDocument
	}
	return doc, nil
}

// Save replaces the stored document.
func (s *PostgresStore) Save(ctx context.Context, doc Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("featureconfig: encode document: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO feature_config (id, payload, updated_at) VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`, data)
	if err != nil {
		return fmt.Errorf("featureconfig: postgres upsert: %w", err)
	}
	return nil
}
