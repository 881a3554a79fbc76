// SPDX-License-Identifier: MIT

package core

import "reflect"

type selectorKind uint8

const (
	selAny selectorKind = iota
	selType
	selValue
)

// anchor is the registry key: an event type plus an optional state
// constraint (none, state type, or exact state value).
type anchor struct {
	event     reflect.Type
	kind      selectorKind
	stateType reflect.Type
	state     any
}

// Registry maps (event type, state selector) pairs to controllers.
// Registration happens before the pipeline starts; the registry is not
// safe for concurrent mutation, only for concurrent resolution.
type Registry struct {
	entries map[anchor]Controller
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[anchor]Controller)}
}

// Put binds a controller to an event type with no state constraint: it
// matches the event type under any current state. Re-registering the same
// (event type, selector) pair overwrites the prior binding.
func (r *Registry) Put(eventType reflect.Type, c Controller) {
	r.entries[anchor{event: eventType, kind: selAny}] = c
}

// PutState binds a controller to an event type narrowed by a state type.
// The binding matches when the session's current state has stateType in its
// ancestry.
func (r *Registry) PutState(eventType, stateType reflect.Type, c Controller) {
	r.entries[anchor{event: eventType, kind: selType, stateType: stateType}] = c
}

// PutValue binds a controller to an event type narrowed by an exact state
// value, compared by equality. The value must be comparable in the Go map
// key sense; this is the caller's responsibility, as with the selector
// overwrite rule.
func (r *Registry) PutValue(eventType reflect.Type, state any, c Controller) {
	r.entries[anchor{event: eventType, kind: selValue, state: state}] = c
}

// Resolve returns the most specific controller for the event and the
// session's current state.
//
// For each type T in the event's ancestry, from most to least specific and
// ending at the universal root: an exact-value binding for (T, state) wins;
// failing that, state-type bindings are tried along the state's own
// ancestry; failing that, an any-state binding for T. Only then is the
// next, less specific, event type considered: every state selector on a
// narrower event type outranks any binding on a broader one.
//
// A nil result carries a *NoControllerError matching ErrNoController.
func (r *Registry) Resolve(e Event, state any) (Controller, error) {
	eventType := reflect.TypeOf(e)
	stateComparable := state != nil && reflect.TypeOf(state).Comparable()
	for _, et := range ancestry(eventType) {
		if state != nil {
			if stateComparable {
				if c, ok := r.entries[anchor{event: et, kind: selValue, state: state}]; ok {
					return c, nil
				}
			}
			for _, st := range ancestry(reflect.TypeOf(state)) {
				if c, ok := r.entries[anchor{event: et, kind: selType, stateType: st}]; ok {
					return c, nil
				}
			}
		}
		if c, ok := r.entries[anchor{event: et, kind: selAny}]; ok {
			return c, nil
		}
	}
	return nil, &NoControllerError{EventType: eventType, State: state}
}

// Len reports the number of registered bindings.
func (r *Registry) Len() int { return len(r.entries) }
