// SPDX-License-Identifier: MIT

package httpsource

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/brotherdetjr/puremvc/core"
)

type chatMessage struct {
	Session string `json:"session"`
	Text    string `json:"text"`
}

func (m chatMessage) SessionID() string { return m.Session }

func jsonDecoder(r *http.Request) (core.Event, error) {
	var m chatMessage
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if m.Session == "" {
		return nil, fmt.Errorf("missing session")
	}
	return m, nil
}

func newSource(t *testing.T, cfg Config) *Source {
	t.Helper()
	if cfg.Decoder == nil {
		cfg.Decoder = jsonDecoder
	}
	cfg.Logger = zerolog.Nop()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func TestNewRequiresDecoder(t *testing.T) {
	_, err := New(Config{})
	require.ErrorContains(t, err, "Decoder is required")
}

func TestAcceptsEvent(t *testing.T) {
	s := newSource(t, Config{})
	var got []core.Event
	s.OnEvent(func(e core.Event) { got = append(got, e) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events",
		strings.NewReader(`{"session":"42","text":"hi"}`))
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	require.Contains(t, rec.Body.String(), `"accepted"`)
	require.Equal(t, []core.Event{chatMessage{Session: "42", Text: "hi"}}, got)
}

func TestRejectsUndecodableEvent(t *testing.T) {
	s := newSource(t, Config{})
	s.OnEvent(func(core.Event) { t.Fatal("must not be called") })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{`))
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "bad_event")
}

func TestUnavailableBeforeStart(t *testing.T) {
	s := newSource(t, Config{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/events",
		strings.NewReader(`{"session":"42"}`))
	s.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRateLimit(t *testing.T) {
	s := newSource(t, Config{RateLimit: 2})
	s.OnEvent(func(core.Event) {})
	router := s.Router()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/events",
			strings.NewReader(`{"session":"42"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	require.Equal(t, []int{http.StatusAccepted, http.StatusAccepted, http.StatusTooManyRequests}, codes)
}
