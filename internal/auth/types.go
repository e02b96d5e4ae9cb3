package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the access level attached to an account at registration.
type Role string

const (
	RoleLibrarian Role = "LIBRARIAN"
	RoleMember    Role = "MEMBER"
)

// ParseRole validates a raw role value against the known set.
// Matching is exact: roles are stored and compared upper-case.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.TrimSpace(raw)) {
	case RoleLibrarian:
		return RoleLibrarian, nil
	case RoleMember:
		return RoleMember, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

// Account is a registered user. The username is immutable after creation
// and unique across the store; the secret is held as a bcrypt hash.
type Account struct {
	Username   string
	SecretHash string
	Role       Role
	CreatedAt  time.Time
}

// UserInfo is the public projection of an account (never the secret).
type UserInfo struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Identity is a verified caller: the token subject resolved against the
// credential store, with the role read from storage at verification time.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
