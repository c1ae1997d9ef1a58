package config

import (
	"errors"
	"os"
	"time"
)

const secretKeyVar = "SECRET_KEY"

type TokenConfig interface {
	GetSecretKey() (string, error)
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Tokens struct{}

var _ TokenConfig = Tokens{}

// GetSecretKey returns the token signing secret. There is deliberately no
// default: an unset secret fails closed at startup rather than signing
// tokens with a well-known value.
func (Tokens) GetSecretKey() (string, error) {
	secret := os.Getenv(secretKeyVar)
	if secret == "" {
		return "", errors.New("SECRET_KEY environment variable is not set")
	}
	return secret, nil
}

func (Tokens) GetAccessTokenExpiry() time.Duration {
	return 30 * time.Minute
}

func (Tokens) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}
