package config

import "golang.org/x/crypto/bcrypt"

type SecurityConfig interface {
	GetBcryptCost() int
	GetProtectedPathPrefixes() []string
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetBcryptCost() int {
	return bcrypt.DefaultCost
}

// GetProtectedPathPrefixes lists the path prefixes the auth gate requires a
// valid bearer token for. Everything else passes through untouched.
func (Security) GetProtectedPathPrefixes() []string {
	return []string{"/auth/me"}
}
