package token

import "errors"

// Verification failures are distinguished internally so callers can log and
// test precisely, but they are all collapsed to a single generic credentials
// failure at the API boundary.
var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrWrongTokenType   = errors.New("wrong token type")
	ErrMalformedClaims  = errors.New("malformed token claims")
)
