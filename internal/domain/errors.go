package domain

import "errors"

var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidCredentials hides whether the email or the password failed.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenExpired is kept apart from ErrInvalidToken so callers can say "token expired".
	ErrTokenExpired = errors.New("token expired")
	// ErrInvalidToken covers every other signature or format failure.
	ErrInvalidToken      = errors.New("invalid token")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidInput      = errors.New("invalid input")
	ErrConflict          = errors.New("conflict")
	ErrIncorrectPassword = errors.New("incorrect password")
	// ErrAccountLocked signals temporary lockout after repeated failed logins.
	ErrAccountLocked = errors.New("account locked")
	ErrRateLimited   = errors.New("rate limited")
)
