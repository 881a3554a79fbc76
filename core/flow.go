// SPDX-License-Identifier: MIT

package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Flow is the pipeline orchestrator. One event's lifecycle is strictly
// sequential: acquire the session lock, load (state, vars), dispatch to a
// controller, run the transition, bind a view for the new state, store, and
// render — with any stage failure short-circuiting to the failure view and
// an unconditional lock release once the lock was taken.
//
// Events for different sessions proceed in parallel (subject to the
// executor); events for the same session are serialized by the storage
// lock. Ordering among waiters contending for one session is whatever the
// storage's lock primitive provides.
type Flow[R any] struct {
	source           EventSource
	storage          Storage
	controllers      *Registry
	views            *Views[R]
	initial          Controller
	failView         FailView[R]
	rendererFactory  func(Event) R
	executor         Executor
	unlockedFailures bool
	log              zerolog.Logger
	tracer           trace.Tracer
}

// Start registers the flow as the event source's callback. Events arriving
// before Start are the source's concern.
func (f *Flow[R]) Start() {
	f.source.OnEvent(f.Submit)
}

// Submit hands one event to the execution context and returns immediately.
// All outcomes — storage writes, rendered output, logged errors — are side
// effects; nothing is reported back to the caller.
func (f *Flow[R]) Submit(e Event) {
	eventsSubmittedTotal.Inc()
	f.log.Debug().Str("session_id", e.SessionID()).Type("event", e).Msg("event received")
	if err := f.executor.Go(func() { f.process(e) }); err != nil {
		ferr := f.stageError(StageLock, e, fmt.Errorf("submit: %w", err))
		f.log.Error().Err(ferr).Str("session_id", e.SessionID()).Msg("failed to submit event")
		f.renderFailureNoLock(context.Background(), ferr, e)
	}
}

// process runs the full pipeline for one event on the executor's goroutine.
func (f *Flow[R]) process(e Event) {
	sid := e.SessionID()
	ctx, span := f.tracer.Start(context.Background(), "flow.process",
		trace.WithAttributes(attribute.String("session.id", sid)))
	defer span.End()

	eventsInFlight.Inc()
	defer eventsInFlight.Dec()
	start := time.Now()
	defer func() { processDuration.Observe(time.Since(start).Seconds()) }()

	if err := f.storage.AcquireLock(ctx, sid); err != nil {
		ferr := f.stageError(StageLock, e, err)
		f.observeFailure(span, ferr)
		f.renderFailureNoLock(ctx, ferr, e)
		return
	}

	// The lock is held from here on and must be released exactly once, on
	// every path.

	state, vars, err := f.storage.Load(ctx, sid)
	if err != nil {
		f.failAndUnlock(ctx, span, StageLoad, err, e, nil)
		return
	}
	sess := Session{ID: sid, State: state, Vars: vars}

	ctrl := f.initial
	if state != nil {
		ctrl, err = f.controllers.Resolve(e, state)
		if err != nil {
			f.failAndUnlock(ctx, span, StageDispatch, err, e, &sess)
			return
		}
	}

	next, err := f.transit(ctx, ctrl, e, state)
	if err != nil {
		f.failAndUnlock(ctx, span, StageTransition, err, e, &sess)
		return
	}

	view, err := f.views.Resolve(next)
	if err != nil {
		f.failAndUnlock(ctx, span, StageBindView, err, e, &sess)
		return
	}

	newSess := sess.WithState(next)
	if err := f.storage.Store(ctx, sid, newSess.State, newSess.Vars); err != nil {
		f.failAndUnlock(ctx, span, StageStore, err, e, &newSess)
		return
	}
	f.log.Debug().Str("session_id", sid).Type("state", next).Msg("new state stored")

	if err := f.render(ctx, view, newSess, e); err != nil {
		f.failAndUnlock(ctx, span, StageRender, err, e, &newSess)
		return
	}

	f.releaseLock(ctx, sid)
	span.SetStatus(codes.Ok, "")
	eventsProcessedTotal.WithLabelValues(outcomeSuccess).Inc()
}

// transit invokes the controller, converting a panic into a stage failure.
func (f *Flow[R]) transit(ctx context.Context, c Controller, e Event, from any) (next any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("controller panic: %v\n%s", r, debug.Stack())
		}
	}()
	return c(ctx, e, from)
}

// render invokes the view with a renderer freshly scoped to the event,
// converting a panic into a stage failure.
func (f *Flow[R]) render(ctx context.Context, view View[R], s Session, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("view panic: %v\n%s", r, debug.Stack())
		}
	}()
	return view(ctx, s, f.rendererFactory(e), e)
}

// failAndUnlock is the failure path for every stage past lock acquisition:
// render the failure, then release the lock no matter what.
func (f *Flow[R]) failAndUnlock(ctx context.Context, span trace.Span, stage Stage, cause error, e Event, sess *Session) {
	ferr := f.stageError(stage, e, cause)
	f.observeFailure(span, ferr)
	eventsProcessedTotal.WithLabelValues(outcomeFailure).Inc()
	f.renderFailure(ctx, ferr, e, sess)
	f.releaseLock(ctx, e.SessionID())
}

// renderFailureNoLock handles failures that occur before the lock is held.
// No release is attempted, and rendering happens only when the
// configuration permits unlocked rendering.
func (f *Flow[R]) renderFailureNoLock(ctx context.Context, ferr *FlowError, e Event) {
	eventsProcessedTotal.WithLabelValues(outcomeFailure).Inc()
	if !f.unlockedFailures {
		return
	}
	f.renderFailure(ctx, ferr, e, nil)
}

// renderFailure invokes the failure view. A failure of the failure view
// itself is logged and swallowed; it must never prevent lock release or
// escape the pipeline.
func (f *Flow[R]) renderFailure(ctx context.Context, ferr *FlowError, e Event, sess *Session) {
	defer func() {
		if r := recover(); r != nil {
			f.log.Error().
				Str("session_id", e.SessionID()).
				Interface("panic", r).
				Msg("failure view panicked")
		}
	}()
	if err := f.failView(ctx, ferr, e, sess, f.rendererFactory(e)); err != nil {
		f.log.Error().
			Err(err).
			Str("session_id", e.SessionID()).
			AnErr("cause", ferr).
			Msg("failed to render failure view")
	}
}

// releaseLock releases the session lock. Release errors are reported but
// never raised: the event is already terminal at this point.
func (f *Flow[R]) releaseLock(ctx context.Context, sid string) {
	f.log.Debug().Str("session_id", sid).Msg("releasing session lock")
	if err := f.storage.ReleaseLock(ctx, sid); err != nil {
		f.log.Error().Err(err).Str("session_id", sid).Msg("failed to release session lock")
	}
}

func (f *Flow[R]) stageError(stage Stage, e Event, cause error) *FlowError {
	return &FlowError{Stage: stage, SessionID: e.SessionID(), Err: cause}
}

func (f *Flow[R]) observeFailure(span trace.Span, ferr *FlowError) {
	f.log.Error().
		Err(ferr.Err).
		Str("session_id", ferr.SessionID).
		Stringer("stage", ferr.Stage).
		Msg("pipeline stage failed")
	span.RecordError(ferr)
	span.SetStatus(codes.Error, ferr.Stage.String())
	stageFailuresTotal.WithLabelValues(ferr.Stage.String()).Inc()
}
