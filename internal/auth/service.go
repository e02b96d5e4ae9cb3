package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"libris.dev/internal/obs"
)

// Service provides registration, login, token verification and role-based
// access decisions on top of a credential store and a token codec.
type Service struct {
	store Store
	codec *TokenCodec
}

// NewService wires the authenticator against its store and codec.
func NewService(store Store, codec *TokenCodec) (*Service, error) {
	if store == nil {
		return nil, errors.New("auth: store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	return &Service{store: store, codec: codec}, nil
}

// TokenTTL reports the lifetime of issued tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.codec.TTL()
}

// Register creates a new account. The plaintext secret is hashed before it
// reaches the store; the original is never retained.
func (s *Service) Register(ctx context.Context, username, secret string, role Role) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if secret == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	parsed, err := ParseRole(string(role))
	if err != nil {
		return err
	}
	hash, err := HashSecret(secret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return s.store.Register(ctx, Account{
		Username:   username,
		SecretHash: hash,
		Role:       parsed,
	})
}

// ListUsers returns registered accounts, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, roleFilter *Role) ([]UserInfo, error) {
	return s.store.List(ctx, roleFilter)
}

// Login validates a username/secret pair and issues a token on success.
// Every failure maps to the same ErrInvalidCredentials so the interface
// does not reveal whether the username exists.
func (s *Service) Login(ctx context.Context, username, secret string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || secret == "" {
		obs.ObserveLogin("failure")
		return "", time.Time{}, ErrInvalidCredentials
	}
	acc, err := s.store.Lookup(ctx, username)
	if err != nil {
		obs.ObserveLogin("failure")
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err := VerifySecret(acc.SecretHash, secret); err != nil {
		obs.ObserveLogin("failure")
		return "", time.Time{}, ErrInvalidCredentials
	}
	token, expiresAt, err := s.codec.Issue(acc.Username)
	if err != nil {
		obs.ObserveLogin("failure")
		return "", time.Time{}, err
	}
	obs.ObserveLogin("success")
	return token, expiresAt, nil
}

// Identify verifies a presented token and resolves its subject to a stored
// account. Invalid and expired tokens are counted separately for
// observability but both surface as ErrUnauthenticated: the distinction is
// never leaked to the caller.
func (s *Service) Identify(ctx context.Context, token string) (Identity, error) {
	subject, err := s.codec.Verify(token)
	if err != nil {
		switch {
		case errors.Is(err, ErrExpiredToken):
			obs.ObserveTokenVerification("expired")
		default:
			obs.ObserveTokenVerification("invalid")
		}
		return Identity{}, ErrUnauthenticated
	}
	acc, err := s.store.Lookup(ctx, subject)
	if err != nil {
		obs.ObserveTokenVerification("unknown_subject")
		return Identity{}, ErrUnauthenticated
	}
	obs.ObserveTokenVerification("ok")
	return Identity{Username: acc.Username, Role: acc.Role}, nil
}

// Authorize decides whether an actor role may perform an operation gated on
// the required role. It fails with ErrForbidden on mismatch.
func (s *Service) Authorize(actor, required Role) error {
	if actor != required {
		return fmt.Errorf("%w: %s required", ErrForbidden, required)
	}
	return nil
}
