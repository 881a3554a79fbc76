// SPDX-License-Identifier: MIT

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func namedView(name string, out *string) View[*string] {
	return func(ctx context.Context, s Session, r *string, e Event) error {
		*out = name
		return nil
	}
}

func TestViewsResolveExactType(t *testing.T) {
	v := NewViews[*string]()
	var got string
	v.Bind(namedView("greeting", &got), TypeOf[greeting]())

	view, err := v.Resolve(greeting{})
	require.NoError(t, err)
	var sink string
	require.NoError(t, view(context.Background(), Session{}, &sink, baseEvent{}))
	require.Equal(t, "greeting", got)
}

func TestViewsResolveViaAncestry(t *testing.T) {
	v := NewViews[*string]()
	var got string
	v.Bind(namedView("convo", &got), TypeOf[convoState]())

	view, err := v.Resolve(farewell{})
	require.NoError(t, err)
	var sink string
	require.NoError(t, view(context.Background(), Session{}, &sink, baseEvent{}))
	require.Equal(t, "convo", got)
}

func TestViewsCatchAll(t *testing.T) {
	v := NewViews[*string]()
	var got string
	v.Bind(namedView("fallback", &got), TypeOf[any]())

	view, err := v.Resolve("some string state")
	require.NoError(t, err)
	var sink string
	require.NoError(t, view(context.Background(), Session{}, &sink, baseEvent{}))
	require.Equal(t, "fallback", got)
}

func TestViewsBindMultipleTypes(t *testing.T) {
	v := NewViews[*string]()
	var got string
	v.Bind(namedView("either", &got), TypeOf[greeting](), TypeOf[farewell]())
	require.Equal(t, 2, v.Len())

	_, err := v.Resolve(greeting{})
	require.NoError(t, err)
	_, err = v.Resolve(farewell{})
	require.NoError(t, err)
}

func TestViewsResolveNotFound(t *testing.T) {
	v := NewViews[*string]()
	var got string
	v.Bind(namedView("greeting", &got), TypeOf[greeting]())

	_, err := v.Resolve(farewell{})
	require.ErrorIs(t, err, ErrNoView)

	var nve *NoViewError
	require.ErrorAs(t, err, &nve)
	require.Equal(t, TypeOf[farewell](), nve.StateType)
}
