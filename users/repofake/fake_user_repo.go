package fakeuserrepo

import (
	"context"
	"sync"
	"time"

	"github.com/tokencore/go-token-service/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

// FakeUserRepo is an in-memory UserRepo. The email index is maintained under
// the same lock as the insert, so the unique-email guarantee holds even for
// concurrent Create calls.
type FakeUserRepo struct {
	byID    map[string]*users.User
	byEmail map[string]string // email to user ID
	lock    sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		byID:    make(map[string]*users.User),
		byEmail: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, exists := ur.byEmail[user.Email]; exists {
		return users.ErrDuplicateEmail
	}

	stored := *user
	ur.byID[stored.ID] = &stored
	ur.byEmail[stored.Email] = stored.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.byEmail[email]
	if !ok {
		return nil, users.ErrNotFound
	}
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()
	return ur.copyOf(id)
}

func (ur *FakeUserRepo) SetLastLogin(_ context.Context, id string, at time.Time) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.LastLogin = &at
	return nil
}

// SetActive toggles the active flag. Not part of users.UserRepo; used by
// tests exercising inactive-user rejection.
func (ur *FakeUserRepo) SetActive(id string, active bool) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	user.Active = active
	return nil
}

// Delete removes a user. Not part of users.UserRepo; used by tests exercising
// deleted-user paths.
func (ur *FakeUserRepo) Delete(id string) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	user, ok := ur.byID[id]
	if !ok {
		return users.ErrNotFound
	}
	delete(ur.byEmail, user.Email)
	delete(ur.byID, id)
	return nil
}

func (ur *FakeUserRepo) copyOf(id string) (*users.User, error) {
	user, ok := ur.byID[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	copied := *user
	return &copied, nil
}
