// SPDX-License-Identifier: MIT

// Package locktable provides an in-process, per-key asynchronous lock
// table. Storage backends use it to serialize event pipelines for one
// session; lock ownership is process-local, matching the runtime's
// single-owner assumption for session locks.
package locktable

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

const defaultShards = 16

// Table is a sharded map of per-key locks. Entries exist only while a key
// is locked or contended; an uncontended release removes its entry.
type Table struct {
	shards []*shard
}

type shard struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	// token holds one value while the key is unlocked. Acquire takes the
	// value, Release puts it back.
	token   chan struct{}
	waiters int
}

// New creates a lock table with the default shard count.
func New() *Table {
	return NewSharded(defaultShards)
}

// NewSharded creates a lock table spread over n shards. Sharding only
// bounds contention on the table itself; per-key exclusivity is unaffected.
func NewSharded(n int) *Table {
	if n < 1 {
		n = 1
	}
	t := &Table{shards: make([]*shard, n)}
	for i := range t.shards {
		t.shards[i] = &shard{locks: make(map[string]*entry)}
	}
	return t
}

func (t *Table) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return t.shards[h.Sum32()%uint32(len(t.shards))]
}

// Acquire takes the lock for key, blocking while another holder has it.
// Waiters are woken in whatever order the runtime schedules blocked channel
// receives; no FIFO fairness is guaranteed. Returns ctx.Err() if ctx
// expires first.
func (t *Table) Acquire(ctx context.Context, key string) error {
	s := t.shardFor(key)

	s.mu.Lock()
	e, ok := s.locks[key]
	if !ok {
		e = &entry{token: make(chan struct{}, 1)}
		e.token <- struct{}{}
		s.locks[key] = e
	}
	e.waiters++
	s.mu.Unlock()

	select {
	case <-e.token:
		s.mu.Lock()
		e.waiters--
		s.mu.Unlock()
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		e.waiters--
		t.gc(s, key, e)
		s.mu.Unlock()
		return ctx.Err()
	}
}

// Release returns the lock for key. Releasing a key that is not locked is
// an error rather than a panic, so a storage backend can surface it as an
// ordinary failure.
func (t *Table) Release(key string) error {
	s := t.shardFor(key)

	s.mu.Lock()
	e, ok := s.locks[key]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("locktable: release of unlocked key %q", key)
	}

	select {
	case e.token <- struct{}{}:
	default:
		return fmt.Errorf("locktable: double release of key %q", key)
	}

	s.mu.Lock()
	t.gc(s, key, e)
	s.mu.Unlock()
	return nil
}

// gc drops the entry once nobody holds or waits for the key. Caller holds
// the shard mutex.
func (t *Table) gc(s *shard, key string, e *entry) {
	if e.waiters == 0 && len(e.token) == 1 {
		delete(s.locks, key)
	}
}

// Locked reports whether key is currently held. Intended for tests.
func (t *Table) Locked(key string) bool {
	s := t.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.locks[key]
	return ok && len(e.token) == 0
}
