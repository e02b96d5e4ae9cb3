package auth

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store describes credential persistence required by the auth service.
type Store interface {
	// Register inserts a new account. The username must not exist yet.
	Register(ctx context.Context, acc Account) error
	// Lookup returns the account for a username or ErrNotFound.
	Lookup(ctx context.Context, username string) (Account, error)
	// List returns public account projections, filtered by role when the
	// filter is non-nil.
	List(ctx context.Context, roleFilter *Role) ([]UserInfo, error)
}

// InMemory implements Store with in-process concurrency safety. Accounts are
// never updated or deleted, so a single map guarded by a reader-writer lock
// is sufficient: the only write is the insert-if-absent at registration.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[string]Account
	order    []string // usernames in registration order, for stable listings
}

// NewInMemory creates an empty credential store.
func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[string]Account)}
}

func (s *InMemory) Register(ctx context.Context, acc Account) error {
	username := strings.TrimSpace(acc.Username)
	if username == "" || acc.SecretHash == "" {
		return ErrInvalidInput
	}
	role, err := ParseRole(string(acc.Role))
	if err != nil {
		return err
	}
	acc.Role = role

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[username]; exists {
		return ErrDuplicateUsername
	}
	acc.Username = username
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = time.Now().UTC()
	}
	s.accounts[username] = acc
	s.order = append(s.order, username)
	return nil
}

func (s *InMemory) Lookup(ctx context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[strings.TrimSpace(username)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acc, nil
}

func (s *InMemory) List(ctx context.Context, roleFilter *Role) ([]UserInfo, error) {
	if roleFilter != nil {
		if _, err := ParseRole(string(*roleFilter)); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UserInfo, 0, len(s.order))
	for _, username := range s.order {
		acc := s.accounts[username]
		if roleFilter != nil && acc.Role != *roleFilter {
			continue
		}
		out = append(out, UserInfo{Username: acc.Username, Role: acc.Role})
	}
	return out, nil
}
