// Package pgstore provides a PostgreSQL-backed refresh.Store. Consume is a
// single DELETE ... RETURNING statement, so the check-and-remove is atomic at
// the database and two racing consumers can never both succeed.
package pgstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tokencore/go-token-service/token/refresh"
)

var _ refresh.Store = (*Store)(nil)
var _ refresh.Expirer = (*Store)(nil)

type Store struct {
	db      *sql.DB
	nowFunc func() time.Time
}

type Option func(*Store)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFunc = now
	}
}

func New(db *sql.DB, options ...Option) *Store {
	s := &Store{
		db:      db,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Store) Issue(ctx context.Context, token, userID string, ttl time.Duration) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (token) DO UPDATE SET user_id = $2, expires_at = $3
	`
	if _, err := s.db.ExecContext(ctx, query, token, userID, s.nowFunc().Add(ttl)); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *Store) Consume(ctx context.Context, token string) (string, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1 AND expires_at > $2
		RETURNING user_id
	`
	var userID string
	err := s.db.QueryRowContext(ctx, query, token, s.nowFunc()).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", refresh.ErrNotFound
		}
		return "", fmt.Errorf("failed to consume refresh token: %w", err)
	}
	return userID, nil
}

func (s *Store) Revoke(ctx context.Context, token string) error {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
	`
	if _, err := s.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// DeleteExpired sweeps lapsed rows. Expired tokens are already unusable via
// the expires_at guard in Consume; this keeps the table bounded.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, s.nowFunc())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	return result.RowsAffected()
}
