// Package session owns the client identity triple: an opaque session id
// generated once and kept forever, the bearer token whose presence is the
// sole "logged in" signal, and the active username.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yathiraju/smartsale/internal/localstore"
)

const (
	keySessionID = "session_id"
	keyToken     = "auth_token"
	keyUsername  = "username"
	keyAPIHost   = "api_host"
	keyCartID    = "cart_id"
)

type Store struct {
	kv localstore.Store

	mu         sync.Mutex
	tokenCache string
	tokenRead  bool
}

func NewStore(kv localstore.Store) *Store {
	return &Store{kv: kv}
}

// SessionID returns the stable session identifier, generating and persisting
// one on first use.
func (s *Store) SessionID(ctx context.Context) string {
	v, err := s.kv.Get(ctx, keySessionID)
	if err == nil && v != "" {
		return v
	}
	id := "sess_" + uuid.NewString()
	if e2 := s.kv.Set(ctx, keySessionID, id); e2 != nil {
		log.Warn().Err(e2).Msg("failed to persist session id")
	}
	return id
}

// Token returns the stored bearer token, or "" when logged out.
func (s *Store) Token(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tokenRead {
		return s.tokenCache
	}
	v, err := s.kv.Get(ctx, keyToken)
	if err != nil && !errors.Is(err, localstore.ErrNotFound) {
		log.Warn().Err(err).Msg("failed to read auth token")
		return ""
	}
	s.tokenCache = v
	s.tokenRead = true
	return v
}

func (s *Store) LoggedIn(ctx context.Context) bool {
	return s.Token(ctx) != ""
}

// SetCredentials stores the token and username after a successful login or
// a signup that returned a token.
func (s *Store) SetCredentials(ctx context.Context, token, username string) error {
	s.mu.Lock()
	s.tokenCache = token
	s.tokenRead = true
	s.mu.Unlock()

	if err := s.kv.Set(ctx, keyToken, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	if err := s.kv.Set(ctx, keyUsername, username); err != nil {
		return fmt.Errorf("failed to store username: %w", err)
	}
	return nil
}

// ClearToken drops the token without touching the username. The API client
// calls this on a 401, the server having declared the session invalid.
func (s *Store) ClearToken(ctx context.Context) {
	s.mu.Lock()
	s.tokenCache = ""
	s.tokenRead = true
	s.mu.Unlock()
	if err := s.kv.Delete(ctx, keyToken); err != nil {
		log.Warn().Err(err).Msg("failed to clear auth token")
	}
}

// Logout clears the token and username. Derived address/shipping state is
// the cart store's to clear; callers do that alongside.
func (s *Store) Logout(ctx context.Context) {
	s.ClearToken(ctx)
	if err := s.kv.Delete(ctx, keyUsername); err != nil {
		log.Warn().Err(err).Msg("failed to clear username")
	}
}

func (s *Store) Username(ctx context.Context) string {
	v, err := s.kv.Get(ctx, keyUsername)
	if err != nil {
		return ""
	}
	return v
}

// APIHost returns the persisted host override, or "" when none is set.
func (s *Store) APIHost(ctx context.Context) string {
	v, err := s.kv.Get(ctx, keyAPIHost)
	if err != nil {
		return ""
	}
	return v
}

func (s *Store) SetAPIHost(ctx context.Context, host string) error {
	return s.kv.Set(ctx, keyAPIHost, host)
}

func (s *Store) SavedCartID(ctx context.Context) string {
	v, err := s.kv.Get(ctx, keyCartID)
	if err != nil {
		return ""
	}
	return v
}

func (s *Store) SetSavedCartID(ctx context.Context, id string) error {
	if id == "" {
		return s.kv.Delete(ctx, keyCartID)
	}
	return s.kv.Set(ctx, keyCartID, id)
}
