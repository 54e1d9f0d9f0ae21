package executor

import (
	"context"
	"sync"
)

// Promise is the producer side of a completion rendezvous: the task
// resolves it exactly once, and the consumer observes the result through
// the paired Future. Resolving twice panics, as double completion is
// always a caller bug.
type Promise struct {
	f    *Future
	once sync.Once
}

// Future is the consumer side of the rendezvous.
type Future struct {
	ch  chan struct{}
	err error
}

// NewPromise creates a linked promise/future pair.
func NewPromise() (*Promise, *Future) {
	f := &Future{ch: make(chan struct{})}
	return &Promise{f: f}, f
}

// Resolve fulfills the promise with the task's error (nil for success).
func (p *Promise) Resolve(err error) {
	resolved := false
	p.once.Do(func() {
		p.f.err = err
		close(p.f.ch)
		resolved = true
	})
	if !resolved {
		panic("executor: promise resolved twice")
	}
}

// Wait blocks until the future resolves or the context is done. It
// returns the task's error once resolved, or the context error.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.ch:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done reports whether the future has resolved without blocking.
func (f *Future) Done() bool {
	select {
	case <-f.ch:
		return true
	default:
		return false
	}
}
