package refresh

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)
var _ Expirer = (*MemoryStore)(nil)

type memoryEntry struct {
	userID    string
	expiresAt time.Time
}

// MemoryStore is a mutex-protected in-process Store. Revocation state is lost
// on restart and not shared across instances; use the redis or postgres
// store for multi-instance deployments.
type MemoryStore struct {
	entries map[string]memoryEntry
	nowFunc func() time.Time
	lock    sync.Mutex
}

type MemoryStoreOption func(*MemoryStore)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.nowFunc = now
	}
}

func NewMemoryStore(options ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Issue(_ context.Context, token, userID string, ttl time.Duration) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.entries[token] = memoryEntry{
		userID:    userID,
		expiresAt: s.nowFunc().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return "", ErrNotFound
	}
	delete(s.entries, token)

	if s.nowFunc().After(entry.expiresAt) {
		return "", ErrNotFound
	}
	return entry.userID, nil
}

func (s *MemoryStore) Revoke(_ context.Context, token string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.entries, token)
	return nil
}

// DeleteExpired removes lapsed entries, reporting how many were removed.
// Unlike Redis, this store never expires entries on its own; pair it with
// Sweep to keep the map bounded.
func (s *MemoryStore) DeleteExpired(_ context.Context) (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	now := s.nowFunc()
	var removed int64
	for token, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, token)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of outstanding entries, lapsed or not.
func (s *MemoryStore) Len() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.entries)
}
