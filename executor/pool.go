package executor

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// PoolExecutor runs tasks on a fixed pool of worker goroutines.
//
// Tasks are accepted by Add or Submit until Shutdown; everything
// accepted before Shutdown runs exactly once. Submit additionally
// returns a Future resolving when the task completes, which is how a
// foreign caller observes completion without polling.
type PoolExecutor struct {
	tasks chan func()
	wg    sync.WaitGroup
	log   *zap.Logger

	mu     sync.Mutex
	closed bool

	shutdownOnce sync.Once
}

var _ Executor = (*PoolExecutor)(nil)

// PoolOption configures a PoolExecutor.
type PoolOption func(*PoolExecutor)

// WithLogger attaches a structured logger; task panics are logged
// through it instead of crashing the worker.
func WithLogger(log *zap.Logger) PoolOption {
	return func(p *PoolExecutor) {
		p.log = log
	}
}

// NewPool starts a pool with n workers. n must be positive.
func NewPool(n int, opts ...PoolOption) (*PoolExecutor, error) {
	if n <= 0 {
		return nil, fmt.Errorf("pool size must be > 0, got %d", n)
	}

	p := &PoolExecutor{
		tasks: make(chan func(), n),
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(n)
	for i := 0; i < n; i++ {
		go p.worker()
	}
	return p, nil
}

func (p *PoolExecutor) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		p.runOne(task)
	}
}

// runOne isolates panic recovery so a panicking task takes down neither
// the worker nor sibling tasks.
func (p *PoolExecutor) runOne(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("task panicked", zap.Any("panic", r))
		}
	}()
	task()
}

// Add submits a task, blocking if all workers are busy and the intake
// queue is full. Returns ErrShutdown after Shutdown.
func (p *PoolExecutor) Add(task func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrShutdown
	}
	// Send under the lock so Shutdown cannot close the channel between
	// the check and the send.
	p.tasks <- task
	p.mu.Unlock()
	return nil
}

// Submit runs fn on the pool and returns a Future that resolves with
// fn's error when it completes.
func (p *PoolExecutor) Submit(fn func() error) (*Future, error) {
	promise, future := NewPromise()
	err := p.Add(func() {
		promise.Resolve(fn())
	})
	if err != nil {
		return nil, err
	}
	return future, nil
}

// Shutdown stops intake and waits for in-flight and queued tasks to
// finish, or for the context to expire. Idempotent; concurrent callers
// all block until the first shutdown completes or their context ends.
func (p *PoolExecutor) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.tasks)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}
