// SPDX-License-Identifier: MIT

package filestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/brotherdetjr/puremvc/storage"
)

type menuState struct {
	Page int `json:"page"`
}

func newCodec() *storage.JSONCodec {
	return storage.NewJSONCodec().Register(menuState{})
}

func TestLoadFreshSession(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "sessions.json"), newCodec())
	require.NoError(t, err)

	state, vars, err := s.Load(context.Background(), "7")
	require.NoError(t, err)
	require.Nil(t, state)
	require.Nil(t, vars)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "sessions.json"), newCodec())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.Store(ctx, "7", menuState{Page: 1}, map[string]any{"lang": "en"}))
	require.NoError(t, s.Store(ctx, "7", menuState{Page: 2}, map[string]any{"lang": "en"}))

	state, vars, err := s.Load(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, menuState{Page: 2}, state)
	require.Equal(t, map[string]any{"lang": "en"}, vars)
}

func TestStorePersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	ctx := context.Background()

	s1, err := Open(path, newCodec())
	require.NoError(t, err)
	require.NoError(t, s1.Store(ctx, "7", menuState{Page: 3}, nil))

	s2, err := Open(path, newCodec())
	require.NoError(t, err)

	state, _, err := s2.Load(ctx, "7")
	require.NoError(t, err)
	require.Equal(t, menuState{Page: 3}, state)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path, newCodec())
	require.ErrorContains(t, err, "parse")
}

func TestLockRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "sessions.json"), newCodec())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.AcquireLock(ctx, "7"))
	require.NoError(t, s.ReleaseLock(ctx, "7"))
	require.Error(t, s.ReleaseLock(ctx, "7"))
}
