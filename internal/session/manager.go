// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hostbeat/hostbeat/internal/authz"
	"github.com/hostbeat/hostbeat/internal/logging"
)

// Manager holds the active session for the process lifetime and is the
// only writer of the persisted identity store.
type Manager struct {
	store Store

	mu     sync.RWMutex
	active *Identity
}

// NewManager creates a Manager over the given store. Call Restore to
// pick up a persisted session.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Restore reads the persisted identity at startup. A session is
// established only when token, username, and role are all present and
// the token has not visibly expired; otherwise the client stays
// unauthenticated. No network call is made.
func (m *Manager) Restore() error {
	id, err := m.store.Load()
	if errors.Is(err, ErrNoIdentity) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	if !id.complete() {
		logging.Warn().Msg("Partial persisted identity, discarding")
		return m.Clear()
	}

	if tokenExpired(id.Token) {
		logging.Info().Str("username", id.Username).Msg("Persisted token expired, discarding")
		return m.Clear()
	}

	m.mu.Lock()
	m.active = id
	m.mu.Unlock()
	logging.Info().Str("username", id.Username).Str("role", string(id.Role)).
		Msg("Session restored")
	return nil
}

// Establish persists and activates a session after successful login or
// registration.
func (m *Manager) Establish(token, username string, role authz.Role) error {
	id := &Identity{Token: token, Username: username, Role: role}
	if !id.complete() {
		return errors.New("session: refusing to establish partial identity")
	}

	if err := m.store.Save(id); err != nil {
		return fmt.Errorf("persist identity: %w", err)
	}

	m.mu.Lock()
	m.active = id
	m.mu.Unlock()
	logging.Info().Str("username", username).Str("role", string(role)).
		Msg("Session established")
	return nil
}

// Clear erases the persisted identity and deactivates the session.
// Callers invoke it regardless of whether a server-side logout call
// succeeded; local sign-out is always honored.
func (m *Manager) Clear() error {
	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear persisted identity: %w", err)
	}
	logging.Info().Msg("Session cleared")
	return nil
}

// Current returns a copy of the active identity and whether one exists.
func (m *Manager) Current() (Identity, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.active == nil {
		return Identity{}, false
	}
	return *m.active, true
}

// Role returns the active role, or authz.RoleNone when unauthenticated.
func (m *Manager) Role() authz.Role {
	id, ok := m.Current()
	if !ok {
		return authz.RoleNone
	}
	return id.Role
}

// Token implements the gateway's TokenSource: the bearer credential
// for authenticated requests, empty when unauthenticated.
func (m *Manager) Token() string {
	id, ok := m.Current()
	if !ok {
		return ""
	}
	return id.Token
}

// tokenExpired inspects a JWT's exp claim without verifying the
// signature. Verification is the server's job; this only avoids
// restoring a session the server is guaranteed to reject. Opaque
// (non-JWT) tokens are accepted as-is.
func tokenExpired(token string) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
