package auth

import "errors"

var (
	ErrNotFound          = errors.New("auth: account not found")
	ErrDuplicateUsername = errors.New("auth: username already exists")
	ErrInvalidRole       = errors.New("auth: invalid role")
	ErrInvalidInput      = errors.New("auth: invalid input")

	// ErrInvalidCredentials covers every login failure, whether the username
	// is unknown or the secret mismatched. The two cases are never
	// distinguished at the interface.
	ErrInvalidCredentials = errors.New("auth: incorrect username or password")

	// ErrInvalidToken and ErrExpiredToken are internal token verdicts; callers
	// outside this package see them collapsed into ErrUnauthenticated.
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrExpiredToken = errors.New("auth: token expired")

	ErrUnauthenticated = errors.New("auth: could not validate credentials")
	ErrForbidden       = errors.New("auth: operation not permitted for role")
)
