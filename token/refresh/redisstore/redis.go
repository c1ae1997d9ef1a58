// Package redisstore provides a Redis-backed refresh.Store so that multiple
// service instances share revocation state. GETDEL makes Consume atomic
// without any client-side locking.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/tokencore/go-token-service/token/refresh"
)

const defaultKeyPrefix = "auth:refresh:"

var _ refresh.Store = (*Store)(nil)

type Store struct {
	client    *redis.Client
	keyPrefix string
}

type Option func(*Store)

// WithKeyPrefix overrides the Redis key prefix (default "auth:refresh:").
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.keyPrefix = prefix
	}
}

func New(client *redis.Client, options ...Option) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	s := &Store{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// NewFromURL builds a Store from a redis:// URL, the form REDIS_URL carries.
// No connection is made until the store is used; call Ping to check one.
func NewFromURL(url string, options ...Option) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return New(redis.NewClient(opts), options...)
}

// Ping verifies the connection to the Redis server.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Issue(ctx context.Context, token, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (s *Store) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, s.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", refresh.ErrNotFound
		}
		return "", fmt.Errorf("failed to consume refresh token: %w", err)
	}
	return userID, nil
}

func (s *Store) Revoke(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (s *Store) key(token string) string {
	return s.keyPrefix + token
}
