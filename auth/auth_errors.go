package auth

import "errors"

var (
	// ErrDuplicateEmail is returned by Register when the email is taken.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// login failures never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRefreshToken covers signature failure, expiry, wrong token
	// kind, and not-found-in-store, deliberately undifferentiated.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrUserNotFound is returned when a verified token resolves to a user
	// record that has since been deleted.
	ErrUserNotFound = errors.New("user not found")
)
