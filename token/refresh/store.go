// Package refresh tracks live refresh tokens. A refresh token is accepted
// only if it both verifies cryptographically and is still present in the
// store; consuming or revoking it removes the entry, making the token
// single-use.
package refresh

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Consume when the token is absent: never issued,
// already consumed, revoked, or lapsed.
var ErrNotFound = errors.New("refresh token not found")

// Store is the authority for refresh-token liveness. Implementations must
// make Consume an atomic check-and-remove: of two concurrent Consume calls on
// the same token, exactly one succeeds.
type Store interface {
	// Issue records token as outstanding for userID. Overwrites silently if
	// the token string already exists.
	Issue(ctx context.Context, token, userID string, ttl time.Duration) error

	// Consume looks up and removes the token in one step, returning the
	// owning user ID.
	Consume(ctx context.Context, token string) (string, error)

	// Revoke removes the token if present. Revoking an unknown token is a
	// no-op.
	Revoke(ctx context.Context, token string) error
}
