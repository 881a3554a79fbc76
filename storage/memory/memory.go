// SPDX-License-Identifier: MIT

// Package memory provides the in-process session storage backend: a plain
// map behind the session lock table. It is the usual choice for embedded
// runtimes and tests; nothing survives a restart.
package memory

import (
	"context"
	"sync"

	"github.com/brotherdetjr/puremvc/internal/locktable"
)

type record struct {
	state any
	vars  map[string]any
}

// Storage implements core.Storage.
type Storage struct {
	tab      *locktable.Table
	mu       sync.RWMutex
	sessions map[string]record
}

func New() *Storage {
	return &Storage{
		tab:      locktable.New(),
		sessions: make(map[string]record),
	}
}

func (s *Storage) AcquireLock(ctx context.Context, sessionID string) error {
	return s.tab.Acquire(ctx, sessionID)
}

func (s *Storage) ReleaseLock(ctx context.Context, sessionID string) error {
	return s.tab.Release(sessionID)
}

func (s *Storage) Load(ctx context.Context, sessionID string) (any, map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec := s.sessions[sessionID]
	return rec.state, rec.vars, nil
}

func (s *Storage) Store(ctx context.Context, sessionID string, state any, vars map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = record{state: state, vars: vars}
	return nil
}

// Len reports the number of stored sessions.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
