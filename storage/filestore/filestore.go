// SPDX-License-Identifier: MIT

// Package filestore provides a single-file JSON session storage backend.
// Every Store rewrites the whole file atomically, so it suits small
// deployments (bots, CLIs) where sessions number in the hundreds, not
// millions. The session lock stays process-local.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/google/renameio/v2"

	"github.com/brotherdetjr/puremvc/internal/locktable"
	"github.com/brotherdetjr/puremvc/storage"
)

type record struct {
	State json.RawMessage `json:"state"`
	Vars  map[string]any  `json:"vars,omitempty"`
}

// Storage implements core.Storage on a single JSON file keyed by session id.
type Storage struct {
	path  string
	codec storage.Codec
	tab   *locktable.Table

	mu       sync.Mutex
	sessions map[string]record
}

// Open loads the session file at path, creating an empty store when the
// file does not exist yet.
func Open(path string, codec storage.Codec) (*Storage, error) {
	s := &Storage{
		path:     path,
		codec:    codec,
		tab:      locktable.New(),
		sessions: make(map[string]record),
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("filestore read %s: %w", path, err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.sessions); err != nil {
			return nil, fmt.Errorf("filestore parse %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *Storage) AcquireLock(ctx context.Context, sessionID string) error {
	return s.tab.Acquire(ctx, sessionID)
}

func (s *Storage) ReleaseLock(ctx context.Context, sessionID string) error {
	return s.tab.Release(sessionID)
}

func (s *Storage) Load(ctx context.Context, sessionID string) (any, map[string]any, error) {
	s.mu.Lock()
	rec, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil, nil, nil
	}

	state, err := s.codec.Decode(rec.State)
	if err != nil {
		return nil, nil, err
	}
	return state, rec.Vars, nil
}

func (s *Storage) Store(ctx context.Context, sessionID string, state any, vars map[string]any) error {
	rawState, err := s.codec.Encode(state)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = record{State: rawState, Vars: vars}
	return s.flushLocked()
}

// flushLocked rewrites the whole file. renameio handles temp file
// creation, fsync and the atomic rename, so readers never observe a
// half-written file.
func (s *Storage) flushLocked() error {
	pending, err := renameio.NewPendingFile(s.path)
	if err != nil {
		return fmt.Errorf("filestore create pending file: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	enc := json.NewEncoder(pending)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.sessions); err != nil {
		return fmt.Errorf("filestore encode sessions: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("filestore replace %s: %w", s.path, err)
	}
	return nil
}
