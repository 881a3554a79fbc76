// SPDX-License-Identifier: MIT

package core

import "context"

// Storage owns the session's persisted (state, vars) pair and its
// mutual-exclusion lock. The runtime never caches session state across
// events: it re-reads (state, vars) after acquiring the lock, so the lock
// is the sole source of mutual exclusion.
//
// AcquireLock may block while another in-flight event for the same session
// holds the lock. ReleaseLock is called exactly once per successful acquire.
// Load returns a nil state for a session that has never stored one.
type Storage interface {
	AcquireLock(ctx context.Context, sessionID string) error
	ReleaseLock(ctx context.Context, sessionID string) error
	Load(ctx context.Context, sessionID string) (state any, vars map[string]any, err error)
	Store(ctx context.Context, sessionID string, state any, vars map[string]any) error
}
