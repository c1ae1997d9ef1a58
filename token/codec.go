// Package token encodes and decodes the signed, expiring claim sets used as
// access and refresh tokens. Validity here is purely cryptographic: the codec
// knows nothing about the refresh-token registry.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Kind discriminates access tokens from refresh tokens via the "type" claim,
// so one can never be presented where the other is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	defaultAccessExpiry  = 30 * time.Minute
	defaultRefreshExpiry = 7 * 24 * time.Hour
)

// Data is the result of a successful verification: the resolved identity.
// It is never persisted.
type Data struct {
	UserID string
	Email  string
	Kind   Kind
}

// Codec mints and verifies tokens with a fixed symmetric algorithm and a
// server-side secret.
type Codec struct {
	signer        Signer
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	nowFunc       func() time.Time
}

type CodecOption func(*Codec)

func WithExpiry(accessExpiry, refreshExpiry time.Duration) CodecOption {
	return func(c *Codec) {
		c.accessExpiry = accessExpiry
		c.refreshExpiry = refreshExpiry
	}
}

// WithNowFunc sets the clock (primarily for testing)
func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(signer Signer, options ...CodecOption) *Codec {
	c := &Codec{
		signer:        signer,
		accessExpiry:  defaultAccessExpiry,
		refreshExpiry: defaultRefreshExpiry,
		nowFunc:       time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// AccessExpiry is the configured access-token lifetime, surfaced so callers
// can report expires_in to clients.
func (c *Codec) AccessExpiry() time.Duration { return c.accessExpiry }

// RefreshExpiry is the configured refresh-token lifetime.
func (c *Codec) RefreshExpiry() time.Duration { return c.refreshExpiry }

// Mint serializes and signs a claim set for the given kind and subject.
// The email claim is carried on access tokens only.
func (c *Codec) Mint(kind Kind, userID, email string) (string, error) {
	now := c.nowFunc()
	claims := jwt.MapClaims{
		"sub":  userID,
		"type": string(kind),
		"iat":  now.Unix(),
		"exp":  now.Add(c.lifetime(kind)).Unix(),
	}
	if kind == KindAccess && email != "" {
		claims["email"] = email
	}
	if kind == KindRefresh {
		// Refresh tokens are registry keys. The timestamp claims have second
		// granularity, so without a unique ID two mints for the same user in
		// the same second would produce the same token string and share one
		// registry entry.
		claims["jti"] = uuid.NewString()
	}
	return c.signer.Sign(claims)
}

// Verify decodes a token and checks, in order: signature, expiry, kind, and
// subject. Each failure maps to one of the package sentinel errors.
func (c *Codec) Verify(rawToken string, expected Kind) (*Data, error) {
	parser := jwt.NewParser(
		jwt.WithTimeFunc(c.nowFunc),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	parsed, err := parser.Parse(rawToken, c.signer.GetVerificationKey)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrMalformedClaims
		}
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedClaims
	}

	kind, _ := claims["type"].(string)
	if Kind(kind) != expected {
		return nil, ErrWrongTokenType
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, ErrMalformedClaims
	}
	if _, err := uuid.Parse(sub); err != nil {
		return nil, ErrMalformedClaims
	}

	email, _ := claims["email"].(string)

	return &Data{
		UserID: sub,
		Email:  email,
		Kind:   expected,
	}, nil
}

func (c *Codec) lifetime(kind Kind) time.Duration {
	if kind == KindRefresh {
		return c.refreshExpiry
	}
	return c.accessExpiry
}
