// SPDX-License-Identifier: MIT

package core

// Event is an inbound occurrence belonging to a session. The runtime treats
// it as opaque beyond two facts: it names the session it belongs to, and its
// concrete runtime type drives controller dispatch. Events are expected to
// be immutable once emitted.
type Event interface {
	SessionID() string
}

// EventSource delivers inbound events. Implementations call the registered
// callback once per event, on their own goroutine; OnEvent itself must not
// block.
type EventSource interface {
	OnEvent(func(Event))
}
