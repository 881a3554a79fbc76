// SPDX-License-Identifier: MIT

// Package badgerstore provides a Badger-backed session storage backend for
// single-node deployments that want durable sessions without an external
// service. The session lock stays process-local.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/brotherdetjr/puremvc/internal/locktable"
	"github.com/brotherdetjr/puremvc/storage"
)

// Storage implements core.Storage on a Badger database.
// Keys: "state:<id>" (codec envelope), "vars:<id>" (JSON object).
type Storage struct {
	db    *badger.DB
	codec storage.Codec
	tab   *locktable.Table
}

// Open opens (or creates) a Badger database at path.
func Open(path string, codec storage.Codec) (*Storage, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger open: %w", err)
	}
	return &Storage{db: db, codec: codec, tab: locktable.New()}, nil
}

func (s *Storage) Close() error { return s.db.Close() }

func stateKey(sid string) []byte { return []byte("state:" + sid) }
func varsKey(sid string) []byte  { return []byte("vars:" + sid) }

func (s *Storage) AcquireLock(ctx context.Context, sessionID string) error {
	return s.tab.Acquire(ctx, sessionID)
}

func (s *Storage) ReleaseLock(ctx context.Context, sessionID string) error {
	return s.tab.Release(sessionID)
}

func (s *Storage) Load(ctx context.Context, sessionID string) (any, map[string]any, error) {
	var state any
	var vars map[string]any
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(stateKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			state, err = s.codec.Decode(val)
			return err
		}); err != nil {
			return err
		}

		item, err = txn.Get(varsKey(sessionID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &vars)
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("badger load session: %w", err)
	}
	return state, vars, nil
}

func (s *Storage) Store(ctx context.Context, sessionID string, state any, vars map[string]any) error {
	rawState, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	rawVars, err := json.Marshal(vars)
	if err != nil {
		return fmt.Errorf("badger encode vars: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(stateKey(sessionID), rawState); err != nil {
			return err
		}
		return txn.Set(varsKey(sessionID), rawVars)
	})
	if err != nil {
		return fmt.Errorf("badger store session: %w", err)
	}
	return nil
}
