package session

import "errors"

var (
	// ErrInvalidCredentials covers unknown email and password mismatch
	// alike, so login never acts as an account-existence oracle.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked means the email or user carries an active
	// blacklist flag, set by the attempt counter or by reuse detection.
	ErrAccountLocked = errors.New("account temporarily locked")

	// ErrInvalidToken covers malformed, unsigned and expired access
	// tokens uniformly, and refresh tokens that match no known family.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is a refresh token past its expiry but otherwise
	// well-formed and unrevoked.
	ErrTokenExpired = errors.New("refresh token expired")

	// ErrTokenReuseDetected is the replay signal: a refresh token that
	// was already rotated away was presented again.
	ErrTokenReuseDetected = errors.New("refresh token reuse detected")

	ErrEmailExists  = errors.New("email already registered")
	ErrWeakPassword = errors.New("password is too weak")
	ErrUserNotFound = errors.New("user not found")

	// ErrDependencyUnavailable means the store or cache is unreachable.
	// Never folded into an unauthorized outcome: a throttling check that
	// cannot run must fail the request, not silently pass it.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
