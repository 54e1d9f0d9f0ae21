package executor

import (
	"context"
	"sync"
)

// NotificationQueueExecutor queues tasks until a driver drains them.
//
// Any goroutine may Add; only the driver runs tasks, so everything a
// task touches is confined to the driving goroutine. This is the
// adapter an event loop plugs into: the loop wakes up, calls Drive, and
// the queued completions run on the loop thread.
//
// The zero value is not usable; construct with NewNotificationQueue.
type NotificationQueueExecutor struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
}

var _ Executor = (*NotificationQueueExecutor)(nil)

// NewNotificationQueue creates an empty executor.
func NewNotificationQueue() *NotificationQueueExecutor {
	return &NotificationQueueExecutor{
		wake: make(chan struct{}, 1),
	}
}

// Add submits a task. Safe to call from any goroutine; returns
// ErrShutdown after Close.
func (e *NotificationQueueExecutor) Add(task func()) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrShutdown
	}
	e.queue = append(e.queue, task)
	e.mu.Unlock()

	// Non-blocking wake; a pending signal already covers this task
	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// take removes and returns the currently queued tasks.
func (e *NotificationQueueExecutor) take() []func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	tasks := e.queue
	e.queue = nil
	return tasks
}

// Pending returns the number of queued tasks.
func (e *NotificationQueueExecutor) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// DrainNow runs every currently queued task on the calling goroutine
// without blocking, and returns how many ran.
func (e *NotificationQueueExecutor) DrainNow() int {
	tasks := e.take()
	for _, task := range tasks {
		task()
	}
	return len(tasks)
}

// Drive blocks until at least one task is queued or the context is
// done, then drains the queue on the calling goroutine. Returns the
// number of tasks run, the context error if nothing ran before
// cancellation, or ErrShutdown once the executor is closed with nothing
// left to run.
func (e *NotificationQueueExecutor) Drive(ctx context.Context) (int, error) {
	if n := e.DrainNow(); n > 0 {
		return n, nil
	}

	for {
		if e.isClosed() {
			return 0, ErrShutdown
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-e.wake:
			if n := e.DrainNow(); n > 0 {
				return n, nil
			}
			// Spurious wake: drained by another call, or shutdown
		}
	}
}

func (e *NotificationQueueExecutor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// Close shuts the executor down, draining any still-queued tasks on the
// calling goroutine first so accepted work runs exactly once. A driver
// blocked in Drive is woken and returns ErrShutdown. Idempotent.
func (e *NotificationQueueExecutor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	tasks := e.queue
	e.queue = nil
	e.mu.Unlock()

	for _, task := range tasks {
		task()
	}

	// Wake a blocked driver so it can observe the shutdown
	select {
	case e.wake <- struct{}{}:
	default:
	}
}
