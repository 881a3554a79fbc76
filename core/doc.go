// SPDX-License-Identifier: MIT

// Package core implements an event-driven state-machine runtime for
// long-lived sessions. Inbound events are routed to controllers chosen by
// the event's runtime type and the session's current state, the controller
// computes a new state, the state is persisted and rendered, and the
// session lock is released.
//
// The package owns only the dispatch/execution pipeline. The event
// transport, the storage backend and the rendering target are collaborators
// supplied through the EventSource, Storage and renderer-factory contracts.
package core
