// SPDX-License-Identifier: MIT

// Package httpsource exposes a flow to the network: events arrive as HTTP
// POSTs, get decoded by a caller-supplied Decoder and are handed to the
// flow. Ingestion is fire-and-forget, so the handler answers 202 before
// the pipeline runs.
package httpsource

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/brotherdetjr/puremvc/core"
)

// Decoder turns an HTTP request into an event. Returning an error yields a
// 400 response with the error message.
type Decoder func(*http.Request) (core.Event, error)

// Config configures the ingress.
type Config struct {
	// Decoder is required.
	Decoder Decoder
	// RateLimit caps requests per minute per client IP. Zero disables
	// rate limiting.
	RateLimit int
	Logger    zerolog.Logger
}

// Source is an EventSource fed by HTTP. Mount Router() into a server and
// pass the Source to the flow config.
type Source struct {
	cfg Config

	mu      sync.RWMutex
	handler func(core.Event)
}

// New validates the config and builds the source.
func New(cfg Config) (*Source, error) {
	if cfg.Decoder == nil {
		return nil, errors.New("httpsource: Decoder is required")
	}
	return &Source{cfg: cfg}, nil
}

// OnEvent registers the flow callback. Requests arriving before
// registration are answered 503.
func (s *Source) OnEvent(fn func(core.Event)) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

// Router builds the chi router for the ingress endpoints.
func (s *Source) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	if s.cfg.RateLimit > 0 {
		r.Use(httprate.Limit(
			s.cfg.RateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limit_exceeded"}`))
			}),
		))
	}
	r.Post("/events", s.handleEvent)
	return r
}

func (s *Source) handleEvent(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-Id", requestID)

	event, err := s.cfg.Decoder(r)
	if err != nil {
		s.cfg.Logger.Warn().
			Str("request_id", requestID).
			Err(err).
			Msg("rejected undecodable event")
		writeJSON(w, http.StatusBadRequest,
			fmt.Sprintf(`{"error":"bad_event","detail":%q}`, err.Error()))
		return
	}

	s.mu.RLock()
	handler := s.handler
	s.mu.RUnlock()
	if handler == nil {
		writeJSON(w, http.StatusServiceUnavailable, `{"error":"not_started"}`)
		return
	}

	s.cfg.Logger.Debug().
		Str("request_id", requestID).
		Str("session_id", event.SessionID()).
		Type("event_type", event).
		Msg("event accepted")

	handler(event)
	writeJSON(w, http.StatusAccepted,
		fmt.Sprintf(`{"status":"accepted","request_id":%q}`, requestID))
}

func writeJSON(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(body))
}
