// SPDX-License-Identifier: MIT

package core

// Session is the in-flight representation of a session: its identity, its
// current state (nil for a brand-new session) and auxiliary variables
// carried alongside the state. A Session is rebuilt from storage at the
// start of every event's processing and is never mutated in place; each
// pipeline stage passes a fresh value to the next.
type Session struct {
	ID    string
	State any
	Vars  map[string]any
}

// WithState returns a copy of the session holding the given state. Vars are
// carried over by reference; controllers that need isolated vars should
// replace the map rather than mutate it.
func (s Session) WithState(state any) Session {
	s.State = state
	return s
}

// Var returns the named session variable, or nil when unset.
func (s Session) Var(key string) any {
	if s.Vars == nil {
		return nil
	}
	return s.Vars[key]
}
