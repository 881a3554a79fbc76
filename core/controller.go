// SPDX-License-Identifier: MIT

package core

import "context"

// Controller is a transition function: given an event and the state the
// session is coming from, it computes the state the session moves to. The
// from argument is nil when the controller is invoked as the initial
// controller of a brand-new session.
//
// Controllers run on the pipeline's execution context and may block; the
// context is the per-event processing context.
type Controller func(ctx context.Context, e Event, from any) (any, error)
