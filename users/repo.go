package users

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no user matches the given id or email.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned by Create when the email is already taken.
	// Implementations must enforce this at the storage layer, not via a
	// prior existence check.
	ErrDuplicateEmail = errors.New("email already registered")
)

type UserRepo interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error
}
