// SPDX-License-Identifier: MIT

// Package source provides EventSource implementations for feeding events
// into a flow from Go code.
package source

import (
	"sync"

	"github.com/brotherdetjr/puremvc/core"
)

// Channel is a channel-fed EventSource for embedding a flow inside another
// program and for tests. Emit blocks only when the buffer is full and no
// callback is draining it yet.
type Channel struct {
	ch   chan core.Event
	once sync.Once
	done chan struct{}
}

// NewChannel creates a Channel with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{
		ch:   make(chan core.Event, buffer),
		done: make(chan struct{}),
	}
}

// Emit queues an event for delivery. Events emitted after Close are dropped.
func (c *Channel) Emit(e core.Event) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case <-c.done:
	case c.ch <- e:
	}
}

// OnEvent starts a drain goroutine delivering queued events to fn in
// emission order. It may be called at most once.
func (c *Channel) OnEvent(fn func(core.Event)) {
	c.once.Do(func() {
		go func() {
			for {
				select {
				case <-c.done:
					return
				case e := <-c.ch:
					fn(e)
				}
			}
		}()
	})
}

// Close stops delivery. Close must be called exactly once.
func (c *Channel) Close() {
	close(c.done)
}
