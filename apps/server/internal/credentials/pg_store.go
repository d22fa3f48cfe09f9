package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time check: *PGStore implements Store.
var _ Store = (*PGStore)(nil)

// PGStore implements Store using PostgreSQL. The github_credentials table is
// created by the SQL migrations under apps/server/migrations.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a new PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Put upserts the encrypted credential for a user. linked_at is set on first
// insert only; updated_at moves on every replacement.
func (s *PGStore) Put(ctx context.Context, userID, encrypted string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO github_credentials (user_id, encrypted_token, linked_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 ON CONFLICT (user_id)
		 DO UPDATE SET encrypted_token = EXCLUDED.encrypted_token, updated_at = now()`,
		userID, encrypted)
	if err != nil {
		return fmt.Errorf("upsert credential for %q: %w", userID, err)
	}
	return nil
}

// Get returns the encrypted credential for a user, or ErrNotFound.
func (s *PGStore) Get(ctx context.Context, userID string) (string, error) {
	var encrypted string
	err := s.pool.QueryRow(ctx,
		`SELECT encrypted_token FROM github_credentials WHERE user_id = $1`,
		userID).Scan(&encrypted)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get credential for %q: %w", userID, err)
	}
	return encrypted, nil
}

// Delete removes the credential for a user, returning ErrNotFound when no
// row existed.
func (s *PGStore) Delete(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM github_credentials WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete credential for %q: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
