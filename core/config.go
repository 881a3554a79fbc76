// SPDX-License-Identifier: MIT

package core

import (
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/brotherdetjr/puremvc/internal/log"
)

// Config assembles a Flow. It replaces runtime wiring with an explicit
// configuration struct validated eagerly: an incomplete configuration is a
// build-time error, not a first-event surprise.
type Config[R any] struct {
	// Source delivers inbound events. Required.
	Source EventSource

	// Storage owns session locks and persisted (state, vars). Required;
	// storage/memory is the usual in-process choice.
	Storage Storage

	// Controllers routes (event type, state) pairs to transition functions.
	// Defaults to an empty registry, in which case only Initial can run.
	Controllers *Registry

	// Views routes resulting-state types to renderers. Defaults empty.
	Views *Views[R]

	// Initial handles events for sessions with no prior state. Required.
	Initial Controller

	// FailView renders pipeline failures. Required: without it errors would
	// be dropped silently.
	FailView FailView[R]

	// RendererFactory scopes a renderer to one event (for example a reply
	// channel). Invoked once per event, must not block. Required.
	RendererFactory func(Event) R

	// Executor is the execution context pipelines run on. Defaults to
	// Inline.
	Executor Executor

	// AllowUnlockedRendering permits invoking FailView for failures that
	// occur before the session lock is acquired.
	AllowUnlockedRendering bool

	// Logger overrides the default component logger.
	Logger *zerolog.Logger

	// Tracer overrides the default (globally registered) tracer.
	Tracer trace.Tracer
}

// New validates cfg and builds a Flow. The flow does not consume events
// until Start is called.
func New[R any](cfg Config[R]) (*Flow[R], error) {
	var missing []error
	if cfg.Source == nil {
		missing = append(missing, errors.New("core: config requires an event source"))
	}
	if cfg.Storage == nil {
		missing = append(missing, errors.New("core: config requires a storage backend"))
	}
	if cfg.Initial == nil {
		missing = append(missing, errors.New("core: config requires an initial controller"))
	}
	if cfg.FailView == nil {
		missing = append(missing, errors.New("core: config requires a failure view"))
	}
	if cfg.RendererFactory == nil {
		missing = append(missing, errors.New("core: config requires a renderer factory"))
	}
	if len(missing) > 0 {
		return nil, errors.Join(missing...)
	}

	if cfg.Controllers == nil {
		cfg.Controllers = NewRegistry()
	}
	if cfg.Views == nil {
		cfg.Views = NewViews[R]()
	}
	if cfg.Executor == nil {
		cfg.Executor = Inline
	}

	logger := log.WithComponent("flow")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("puremvc/core")
	}

	return &Flow[R]{
		source:           cfg.Source,
		storage:          cfg.Storage,
		controllers:      cfg.Controllers,
		views:            cfg.Views,
		initial:          cfg.Initial,
		failView:         cfg.FailView,
		rendererFactory:  cfg.RendererFactory,
		executor:         cfg.Executor,
		unlockedFailures: cfg.AllowUnlockedRendering,
		log:              logger,
		tracer:           tracer,
	}, nil
}
