package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is the identity record owned by the user store. The auth core never
// mutates it except for LastLogin on successful authentication.
type User struct {
	ID           string     `json:"id"`         // Unique identifier for the user
	Email        string     `json:"email"`      // User's email address, unique across all users
	Username     string     `json:"username"`   // Display name
	PasswordHash string     `json:"-"`          // Hashed version of the user's password - never serialize
	Active       bool       `json:"is_active"`  // Inactive users cannot authenticate
	CreatedAt    time.Time  `json:"created_at"` // When the user registered
	LastLogin    *time.Time `json:"last_login"` // Last successful login, nil until first login
}

func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, bcrypt.DefaultCost)
}

// HashPasswordCost hashes with an explicit bcrypt work factor. Each call salts
// freshly, so hashing the same password twice yields different strings.
func HashPasswordCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(bytes), err
}

// CheckPasswordHash reports whether password matches hash. A malformed hash
// is treated as a mismatch, never an error.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
