// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/brotherdetjr/puremvc/core"
	"github.com/brotherdetjr/puremvc/source/httpsource"
	"github.com/brotherdetjr/puremvc/storage/memory"
)

func newBot(t *testing.T) (http.Handler, *outbox) {
	t.Helper()

	src, err := httpsource.New(httpsource.Config{
		Decoder: decodeMessage,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	out := newOutbox()
	flow, err := buildFlow(src, memory.New(), out, core.Inline)
	require.NoError(t, err)
	flow.Start()

	return router(src, out, promhttp.Handler()), out
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	h.ServeHTTP(rec, req)
	return rec
}

func TestGreetThenEcho(t *testing.T) {
	h, out := newBot(t)

	require.Equal(t, http.StatusAccepted, post(t, h, `{"session":"42","text":"hi"}`).Code)
	require.Equal(t, http.StatusAccepted, post(t, h, `{"session":"42","text":"knock knock"}`).Code)
	require.Equal(t, http.StatusAccepted, post(t, h, `{"session":"42","text":"who is there"}`).Code)

	require.Equal(t, []string{
		"hello! say something and I will echo it back",
		"#1 you said: knock knock",
		"#2 you said: who is there",
	}, out.lines("42"))
}

func TestSessionsDoNotShareState(t *testing.T) {
	h, out := newBot(t)

	post(t, h, `{"session":"a","text":"one"}`)
	post(t, h, `{"session":"a","text":"two"}`)
	post(t, h, `{"session":"b","text":"three"}`)

	require.Equal(t, []string{
		"hello! say something and I will echo it back",
		"#1 you said: two",
	}, out.lines("a"))
	require.Equal(t, []string{
		"hello! say something and I will echo it back",
	}, out.lines("b"))
}

func TestRepliesEndpoint(t *testing.T) {
	h, _ := newBot(t)
	post(t, h, `{"session":"42","text":"hi"}`)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/42/replies", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Session string   `json:"session"`
		Replies []string `json:"replies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "42", body.Session)
	require.Len(t, body.Replies, 1)
}

func TestHealthz(t *testing.T) {
	h, _ := newBot(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9999"
log_level: debug
storage:
  backend: file
  path: /tmp/sessions.json
`), 0o600))

	cfg, err := loadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Listen)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "file", cfg.Storage.Backend)
	require.Equal(t, 600, cfg.RateLimit, "defaults survive partial config")
}
