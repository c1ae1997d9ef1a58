// Package postgres provides the PostgreSQL-backed user store. The unique
// email constraint lives in the users table, so duplicate registration is
// caught at insert time even when two requests race past the pre-check.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/tokencore/go-token-service/users"
)

const uniqueViolationCode = "23505"

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (id, email, username, password_hash, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.Active, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return users.ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_active, created_at, last_login
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	query := `
		SELECT id, email, username, password_hash, is_active, created_at, last_login
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users SET last_login = $2
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepo) scanUser(row *sql.Row) (*users.User, error) {
	user := &users.User{}
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.PasswordHash,
		&user.Active, &user.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}
