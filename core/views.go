// SPDX-License-Identifier: MIT

package core

import (
	"context"
	"reflect"
)

// View renders a session to the event's renderer after a successful
// transition. R is the renderer type produced by the configured factory.
type View[R any] func(ctx context.Context, s Session, r R, e Event) error

// FailView renders a pipeline failure. The session is the best-known value
// as of the failing stage, or nil when none was loaded. cause is always a
// *FlowError.
type FailView[R any] func(ctx context.Context, cause error, e Event, s *Session, r R) error

// Views maps resulting-state types to views. Bindings are installed before
// the pipeline starts and are resolved by walking the new state's type
// ancestry, so a view bound to a parent state type serves all states
// embedding it; a view bound to TypeOf[any]() is a catch-all.
type Views[R any] struct {
	bindings map[reflect.Type]View[R]
}

func NewViews[R any]() *Views[R] {
	return &Views[R]{bindings: make(map[reflect.Type]View[R])}
}

// Bind installs view for one or more state types, overwriting prior
// bindings for the same types.
func (v *Views[R]) Bind(view View[R], stateTypes ...reflect.Type) *Views[R] {
	for _, t := range stateTypes {
		v.bindings[t] = view
	}
	return v
}

// Resolve returns the view for the state's runtime type, walking its
// ancestry until a binding is found. A nil result carries a *NoViewError
// matching ErrNoView.
func (v *Views[R]) Resolve(state any) (View[R], error) {
	stateType := reflect.TypeOf(state)
	for _, t := range ancestry(stateType) {
		if view, ok := v.bindings[t]; ok {
			return view, nil
		}
	}
	return nil, &NoViewError{StateType: stateType}
}

// Len reports the number of bound state types.
func (v *Views[R]) Len() int { return len(v.bindings) }
