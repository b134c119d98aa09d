// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

package session

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// identityKey is the single record the store holds. One client process
// has at most one identity.
var identityKey = []byte("identity")

// BadgerStore implements Store using BadgerDB for durable storage, so
// a session survives client restarts.
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (or creates) a BadgerDB at path and returns a
// store backed by it.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for session: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// NewBadgerStoreFromDB wraps an already-open BadgerDB.
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Load returns the persisted identity, or ErrNoIdentity.
func (s *BadgerStore) Load() (*Identity, error) {
	var id Identity

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(identityKey)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoIdentity
		}
		if err != nil {
			return fmt.Errorf("get identity: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &id)
		})
	})
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Save persists the identity, replacing any previous record.
func (s *BadgerStore) Save(id *Identity) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(identityKey, data)
	})
}

// Clear removes the persisted identity.
func (s *BadgerStore) Clear() error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete(identityKey)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete identity: %w", err)
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// StoreType selects the session persistence backend.
type StoreType string

const (
	// StoreMemory uses in-memory storage (not persistent).
	StoreMemory StoreType = "memory"

	// StoreBadger uses BadgerDB for persistent storage (default).
	StoreBadger StoreType = "badger"
)

// NewStore creates a Store for the configured backend. An unknown type
// is an error rather than a silent fallback.
func NewStore(storeType StoreType, path string) (Store, error) {
	switch storeType {
	case StoreMemory:
		return NewMemoryStore(), nil
	case StoreBadger, "":
		return OpenBadgerStore(path)
	default:
		return nil, fmt.Errorf("unknown session store type %q", storeType)
	}
}
