// SPDX-License-Identifier: MIT

package core

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Executor is the execution context event pipelines run on. Go schedules fn
// and returns promptly; it reports an error only when the executor cannot
// accept work at all.
type Executor interface {
	Go(fn func()) error
}

// Inline runs pipelines synchronously on the submitting goroutine. It is
// the default execution context, cooperative and with no parallelism,
// matching a direct executor.
var Inline Executor = inlineExecutor{}

type inlineExecutor struct{}

func (inlineExecutor) Go(fn func()) error {
	fn()
	return nil
}

// PoolExecutor runs pipelines on goroutines with bounded parallelism. Each
// submission gets its own goroutine immediately (Go never blocks); at most
// limit of them execute concurrently, the rest wait on the semaphore.
type PoolExecutor struct {
	sem     *semaphore.Weighted
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool creates an executor allowing at most limit concurrent pipelines.
func NewPool(limit int64) *PoolExecutor {
	ctx, cancel := context.WithCancel(context.Background())
	p := &PoolExecutor{
		sem:    semaphore.NewWeighted(limit),
		ctx:    ctx,
		cancel: cancel,
	}
	p.running.Store(true)
	return p
}

// Go schedules fn. Returns ErrExecutorClosed after Shutdown.
func (p *PoolExecutor) Go(fn func()) error {
	if !p.running.Load() {
		return ErrExecutorClosed
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(p.ctx, 1); err != nil {
			return
		}
		defer p.sem.Release(1)
		fn()
	}()
	return nil
}

// Shutdown stops accepting work and waits for in-flight pipelines until ctx
// expires. Pipelines still waiting for a slot when ctx expires are
// abandoned.
func (p *PoolExecutor) Shutdown(ctx context.Context) error {
	p.running.Store(false)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return ctx.Err()
	}
}
