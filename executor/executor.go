// Package executor implements the executor half of the binding bridge:
// it adapts asynchronous task execution to a submit-and-notify model a
// foreign event loop can drive.
//
// Two executors are provided:
//
//   - NotificationQueueExecutor queues submitted tasks until a driver
//     goroutine drains them. This mirrors loop integration: the native
//     side submits completions from any goroutine, and the loop thread
//     calls Drive to run them on itself.
//   - PoolExecutor runs tasks on a fixed pool of worker goroutines and
//     hands back a Future per submission for completion notification.
//
// Both guarantee that a task accepted before shutdown runs exactly once.
package executor

import "errors"

// ErrShutdown is returned when submitting to an executor that has been
// shut down.
var ErrShutdown = errors.New("executor: shut down")

// Executor is the minimal task-submission surface shared by both
// implementations.
type Executor interface {
	// Add submits a task for execution. It never blocks on the task
	// itself and returns ErrShutdown once the executor is closed.
	Add(task func()) error
}
