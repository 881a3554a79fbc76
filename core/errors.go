// SPDX-License-Identifier: MIT

package core

import (
	"errors"
	"fmt"
	"reflect"
)

// Stage identifies the pipeline stage an event was in when it failed.
type Stage uint8

const (
	StageLock Stage = iota + 1
	StageLoad
	StageDispatch
	StageTransition
	StageBindView
	StageStore
	StageRender
)

var stageNames = map[Stage]string{
	StageLock:       "lock",
	StageLoad:       "load",
	StageDispatch:   "dispatch",
	StageTransition: "transition",
	StageBindView:   "bind_view",
	StageStore:      "store",
	StageRender:     "render",
}

func (s Stage) String() string {
	if n, ok := stageNames[s]; ok {
		return n
	}
	return "unknown"
}

var (
	// ErrNoController matches any dispatch failure: no controller resolves
	// for the (event type, state) pair.
	ErrNoController = errors.New("no controller registered")

	// ErrNoView matches any view-binding failure: no view resolves for the
	// resulting state's type.
	ErrNoView = errors.New("no view registered")

	// ErrExecutorClosed is returned by an executor that no longer accepts
	// work.
	ErrExecutorClosed = errors.New("executor closed")
)

// FlowError wraps a stage failure with the stage and session it occurred in.
// Every error surfaced to the failure view is a *FlowError.
type FlowError struct {
	Stage     Stage
	SessionID string
	Err       error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s failed: session %s: %v", e.Stage, e.SessionID, e.Err)
}

func (e *FlowError) Unwrap() error { return e.Err }

// NoControllerError reports a failed dispatch, carrying the event type and
// state for diagnostics.
type NoControllerError struct {
	EventType reflect.Type
	State     any
}

func (e *NoControllerError) Error() string {
	return fmt.Sprintf("no controller registered for event %v and state %v", e.EventType, e.State)
}

func (e *NoControllerError) Is(target error) bool { return target == ErrNoController }

// NoViewError reports a failed view binding for a resulting state type.
type NoViewError struct {
	StateType reflect.Type
}

func (e *NoViewError) Error() string {
	return fmt.Sprintf("no view registered for state %v", e.StateType)
}

func (e *NoViewError) Is(target error) bool { return target == ErrNoView }
