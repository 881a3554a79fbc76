// SPDX-License-Identifier: MIT

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsIncompleteConfig(t *testing.T) {
	_, err := New(Config[*recorder]{})
	require.Error(t, err)
	require.ErrorContains(t, err, "event source")
	require.ErrorContains(t, err, "storage backend")
	require.ErrorContains(t, err, "initial controller")
	require.ErrorContains(t, err, "failure view")
	require.ErrorContains(t, err, "renderer factory")
}

func TestNewRejectsPartialConfig(t *testing.T) {
	_, err := New(Config[*recorder]{
		Source:  &stubSource{},
		Storage: newFakeStorage(),
		Initial: func(ctx context.Context, e Event, from any) (any, error) { return nil, nil },
		FailView: func(ctx context.Context, cause error, e Event, s *Session, r *recorder) error {
			return nil
		},
		// RendererFactory missing.
	})
	require.Error(t, err)
	require.ErrorContains(t, err, "renderer factory")
	require.NotContains(t, err.Error(), "event source")
}

func TestNewAppliesDefaults(t *testing.T) {
	flow, err := New(Config[*recorder]{
		Source:  &stubSource{},
		Storage: newFakeStorage(),
		Initial: func(ctx context.Context, e Event, from any) (any, error) { return nil, nil },
		FailView: func(ctx context.Context, cause error, e Event, s *Session, r *recorder) error {
			return nil
		},
		RendererFactory: func(Event) *recorder { return &recorder{} },
	})
	require.NoError(t, err)
	require.NotNil(t, flow.controllers)
	require.NotNil(t, flow.views)
	require.Equal(t, Inline, flow.executor)
	require.NotNil(t, flow.tracer)
}
