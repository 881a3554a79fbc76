// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/brotherdetjr/puremvc/core"
	"github.com/brotherdetjr/puremvc/source/httpsource"
)

// message is the inbound event: one chat line from one session.
type message struct {
	Session string `json:"session"`
	Text    string `json:"text"`
}

func (m message) SessionID() string { return m.Session }

func decodeMessage(r *http.Request) (core.Event, error) {
	var m message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if m.Session == "" {
		return nil, fmt.Errorf("missing session")
	}
	return m, nil
}

// Conversation states. greeting is where a fresh session lands; echoing
// carries how many lines the bot has echoed so far.
type greeting struct{}

type echoing struct {
	Echoed int `json:"echoed"`
}

// outbox collects rendered replies per session so clients can poll them
// back over HTTP.
type outbox struct {
	mu      sync.Mutex
	replies map[string][]string
}

func newOutbox() *outbox {
	return &outbox{replies: make(map[string][]string)}
}

func (o *outbox) append(sid, line string) {
	o.mu.Lock()
	o.replies[sid] = append(o.replies[sid], line)
	o.mu.Unlock()
}

func (o *outbox) lines(sid string) []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.replies[sid]...)
}

func (o *outbox) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sid := chi.URLParam(r, "id")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"session": sid,
			"replies": o.lines(sid),
		})
	}
}

// reply is the per-event renderer: it knows which session's outbox to
// write into.
type reply struct {
	out *outbox
	sid string
}

func (r reply) say(line string) {
	r.out.append(r.sid, line)
}

// buildFlow wires the greeting/echo state machine.
func buildFlow(src core.EventSource, storage core.Storage, out *outbox, executor core.Executor) (*core.Flow[reply], error) {
	controllers := core.NewRegistry()
	controllers.Put(core.TypeOf[message](), func(ctx context.Context, e core.Event, from any) (any, error) {
		switch s := from.(type) {
		case greeting:
			return echoing{Echoed: 1}, nil
		case echoing:
			return echoing{Echoed: s.Echoed + 1}, nil
		default:
			return nil, fmt.Errorf("unexpected state %T", from)
		}
	})

	views := core.NewViews[reply]().
		Bind(func(ctx context.Context, s core.Session, r reply, e core.Event) error {
			r.say("hello! say something and I will echo it back")
			return nil
		}, core.TypeOf[greeting]()).
		Bind(func(ctx context.Context, s core.Session, r reply, e core.Event) error {
			m := e.(message)
			n := s.State.(echoing).Echoed
			r.say(fmt.Sprintf("#%d you said: %s", n, m.Text))
			return nil
		}, core.TypeOf[echoing]())

	return core.New(core.Config[reply]{
		Source:  src,
		Storage: storage,
		Initial: func(ctx context.Context, e core.Event, from any) (any, error) {
			return greeting{}, nil
		},
		Controllers: controllers,
		Views:       views,
		FailView: func(ctx context.Context, cause error, e core.Event, s *core.Session, r reply) error {
			r.say("something went wrong, try again")
			return nil
		},
		RendererFactory: func(e core.Event) reply {
			return reply{out: out, sid: e.SessionID()}
		},
		Executor:               executor,
		AllowUnlockedRendering: true,
	})
}

// router assembles the public HTTP surface: event ingress, reply polling,
// health and metrics.
func router(src *httpsource.Source, out *outbox, metrics http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Mount("/api", src.Router())
	r.Get("/api/sessions/{id}/replies", out.handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics)
	return r
}
