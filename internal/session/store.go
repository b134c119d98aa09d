// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

// Package session owns the client's identity: the token, username, and
// role returned by login or registration. Exactly one identity exists
// per process; it lives from login (or restoration from the persisted
// store) until logout.
package session

import (
	"errors"
	"sync"

	"github.com/hostbeat/hostbeat/internal/authz"
)

// ErrNoIdentity is returned by Store.Load when nothing is persisted.
var ErrNoIdentity = errors.New("session: no persisted identity")

// Identity is the persisted authentication state.
type Identity struct {
	Token    string     `json:"token"`
	Username string     `json:"username"`
	Role     authz.Role `json:"role"`
}

// complete reports whether all three fields are present. A partial
// record (interrupted write, manual tampering) never establishes a
// session.
func (id *Identity) complete() bool {
	return id != nil && id.Token != "" && id.Username != "" && id.Role != ""
}

// Store is the scoped key-value persistence behind the session. The
// session Manager is its only writer.
type Store interface {
	// Load returns the persisted identity, or ErrNoIdentity.
	Load() (*Identity, error)

	// Save persists the identity, replacing any previous record.
	Save(*Identity) error

	// Clear removes the persisted identity. Clearing an empty store is
	// not an error.
	Clear() error

	// Close releases underlying resources.
	Close() error
}

// MemoryStore is an in-memory Store. Sessions do not survive process
// restart; used in tests and available via config for ephemeral runs.
type MemoryStore struct {
	mu       sync.Mutex
	identity *Identity
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored identity, or ErrNoIdentity.
func (s *MemoryStore) Load() (*Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil, ErrNoIdentity
	}
	clone := *s.identity
	return &clone, nil
}

// Save stores a copy of the identity.
func (s *MemoryStore) Save(id *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *id
	s.identity = &clone
	return nil
}

// Clear removes the stored identity.
func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.identity = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error { return nil }
