package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when an operation is called in the wrong
	// lifecycle state, e.g. Submit before Start or after Stop.
	ErrInvalidState = errors.New("engine in invalid state for operation")

	// ErrTimeout is returned by GetResult when the wait budget elapses.
	// The task may still complete later; the call can be retried.
	ErrTimeout = errors.New("timed out waiting for result")

	// ErrCancelled marks the outcome of a queued item discarded by
	// Stop(drain=false) before any worker picked it up.
	ErrCancelled = errors.New("task cancelled before execution")

	// ErrDuplicateID is returned by Submit when the id already has a live
	// result slot. The id becomes reusable after Forget or TTL eviction.
	ErrDuplicateID = errors.New("task id already in use")

	// ErrUnknownID is returned by GetResult for an id that was never
	// submitted, or whose result slot was already released.
	ErrUnknownID = errors.New("unknown task id")

	// ErrQueueFull is returned by Submit when the task queue cannot accept
	// the item. The item is not enqueued; nothing is dropped silently.
	ErrQueueFull = errors.New("task queue is full")

	// ErrQueueClosed is returned when enqueueing on a queue that has been
	// shut down.
	ErrQueueClosed = errors.New("task queue is closed")

	// ErrShutdownTimeout is returned by StopTimeout when workers did not
	// join within the allowed duration.
	ErrShutdownTimeout = errors.New("shutdown timeout reached")
)

// TaskError wraps a failure raised inside a task body, keeping the task id and
// the original cause. It unwraps to the cause so errors.Is / errors.As see
// through it.
type TaskError struct {
	ID  string
	Err error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.ID, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

func invalidStateErr(op string, s State) error {
	return fmt.Errorf("%w: %s called while %s", ErrInvalidState, op, s)
}
