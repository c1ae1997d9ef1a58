package auth

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 8
	maxPasswordLength = 100
)

// ValidateRegistration checks the registration fields before the service is
// invoked. Failures here are validation errors (422 at the HTTP boundary),
// not authentication failures.
func ValidateRegistration(email, username, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	// Lengths are counted in characters, not bytes, so multibyte usernames
	// and passwords are measured the way users perceive them.
	if n := utf8.RuneCountInString(username); n < minUsernameLength || n > maxUsernameLength {
		return fmt.Errorf("username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	return ValidatePassword(password)
}

// ValidateLogin checks that credentials are present and plausibly formed.
func ValidateLogin(email, password string) error {
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return fmt.Errorf("invalid email format")
	}
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.ContainsAny(email, " \t\r\n") {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

func ValidatePassword(password string) error {
	if n := utf8.RuneCountInString(password); n < minPasswordLength || n > maxPasswordLength {
		return fmt.Errorf("password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}
	return nil
}
