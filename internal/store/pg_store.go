package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB interface for database operations (compatible with pgxpool.Pool and pgxmock)
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
}

// PGStore keeps keyed values in the kv_entries table. The conditional
// INSERT/UPDATE statements give CompareAndSwap its atomicity; no advisory
// locks are needed.
type PGStore struct {
	db DB
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

// NewPGStoreWithDB creates a store over a custom DB interface.
func NewPGStoreWithDB(db DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, error) {
	query := `SELECT value FROM kv_entries WHERE key = $1`

	var value []byte
	err := s.db.QueryRow(ctx, query, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *PGStore) Set(ctx context.Context, key string, value []byte) error {
	query := `
		INSERT INTO kv_entries (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    updated_at = NOW()
	`
	_, err := s.db.Exec(ctx, query, key, value)
	return err
}

func (s *PGStore) CompareAndSwap(ctx context.Context, key string, expected, value []byte) error {
	if expected == nil {
		query := `
			INSERT INTO kv_entries (key, value)
			VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`
		tag, err := s.db.Exec(ctx, query, key, value)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrSwapConflict
		}
		return nil
	}

	query := `
		UPDATE kv_entries
		SET value = $3,
		    updated_at = NOW()
		WHERE key = $1 AND value = $2
	`
	tag, err := s.db.Exec(ctx, query, key, expected, value)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSwapConflict
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM kv_entries WHERE key = $1`
	_, err := s.db.Exec(ctx, query, key)
	return err
}
