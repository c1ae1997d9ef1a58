// Package auth orchestrates registration, login, token refresh, and logout.
// The service is stateless aside from its injected dependencies: the user
// store, the token codec, and the refresh-token store.
package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tokencore/go-token-service/token"
	"github.com/tokencore/go-token-service/token/refresh"
	"github.com/tokencore/go-token-service/users"
	"golang.org/x/crypto/bcrypt"
)

// TokenPair is the response of Login and Refresh: a fresh access/refresh
// token pair plus the access-token lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type Service struct {
	userRepo   users.UserRepo
	store      refresh.Store
	codec      *token.Codec
	bcryptCost int
	nowFunc    func() time.Time
}

type ServiceOption func(*Service)

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// WithBcryptCost tunes the hashing work factor. Lower it in tests; raise it
// where brute-force resistance matters more than login latency.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func NewService(userRepo users.UserRepo, store refresh.Store, codec *token.Codec, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] user repo is required")
	}
	if store == nil {
		return nil, errors.New("[NewService] refresh token store is required")
	}
	if codec == nil {
		return nil, errors.New("[NewService] token codec is required")
	}

	s := &Service{
		userRepo:   userRepo,
		store:      store,
		codec:      codec,
		bcryptCost: bcrypt.DefaultCost,
		nowFunc:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates a new user with a hashed password. The pre-check gives a
// fast answer for the common duplicate case; the storage-layer unique
// constraint is the authority when two registrations race.
func (s *Service) Register(ctx context.Context, email, username, password string) (*users.User, error) {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil, ErrDuplicateEmail
	} else if !errors.Is(err, users.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.Register] GetByEmail")
	}

	passwordHash, err := users.HashPasswordCost(password, s.bcryptCost)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] HashPassword")
	}

	user := &users.User{
		ID:           uuid.New().String(),
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Active:       true,
		CreatedAt:    s.nowFunc().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, errors.Wrap(err, "[Service.Register] Create")
	}
	return user, nil
}

// Login verifies credentials, records the login time, and issues a token
// pair. Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.SetLastLogin(ctx, user.ID, s.nowFunc().UTC()); err != nil {
		return nil, errors.Wrap(err, "[Service.Login] SetLastLogin")
	}

	return s.issuePair(ctx, user.ID, user.Email)
}

// Refresh exchanges a valid, outstanding refresh token for a new pair. The
// old token is consumed before the new pair is issued, so it is permanently
// unusable regardless of how this call ends.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if _, err := s.codec.Verify(refreshToken, token.KindRefresh); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	userID, err := s.store.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, errors.Wrap(err, "[Service.Refresh] Consume")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[Service.Refresh] GetByID")
	}

	return s.issuePair(ctx, user.ID, user.Email)
}

// Logout revokes the refresh token. Revoking a token that was never issued or
// was already consumed is a no-op, so logout is idempotent.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if err := s.store.Revoke(ctx, refreshToken); err != nil {
		return errors.Wrap(err, "[Service.Logout] Revoke")
	}
	return nil
}

// CurrentUser resolves verified token data to the user record behind it.
func (s *Service) CurrentUser(ctx context.Context, data *token.Data) (*users.User, error) {
	user, err := s.userRepo.GetByID(ctx, data.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[Service.CurrentUser] GetByID")
	}
	return user, nil
}

func (s *Service) issuePair(ctx context.Context, userID, email string) (*TokenPair, error) {
	accessToken, err := s.codec.Mint(token.KindAccess, userID, email)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issuePair] mint access token")
	}

	refreshToken, err := s.codec.Mint(token.KindRefresh, userID, "")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issuePair] mint refresh token")
	}

	if err := s.store.Issue(ctx, refreshToken, userID, s.codec.RefreshExpiry()); err != nil {
		return nil, errors.Wrap(err, "[Service.issuePair] store refresh token")
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int(s.codec.AccessExpiry().Seconds()),
	}, nil
}
