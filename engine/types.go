package engine

import "context"

// Task is the unit of work accepted by the engine. Arguments are carried by the
// closure; the result (or failure) comes back through the returned values.
//
// Type parameters:
//   - R: The result type produced by the task
type Task[R any] func(ctx context.Context) (R, error)

// Outcome is the terminal result of one task: either a value or an error,
// never both meaningfully set.
//
// Fields:
//   - Value: The result produced by the task (only valid if Err is nil)
//   - Err: The failure captured from the task body (nil on success)
type Outcome[R any] struct {
	Value R
	Err   error
}

// workItem is one enqueued unit of work. It is immutable once enqueued and is
// consumed exactly once by exactly one worker.
type workItem[R any] struct {
	id  string
	run Task[R]
	fut *Future[R]
}

// Hook types invoked around task execution. Hooks run on worker goroutines and
// must be safe for concurrent use.
type (
	// BeforeTaskHook runs just before a task body is invoked.
	BeforeTaskHook func(id string)

	// AfterTaskHook runs after a task body has produced its outcome.
	AfterTaskHook func(id string, err error)

	// RetryHook runs before each retry attempt (attempt is 1-indexed).
	RetryHook func(id string, attempt int, err error)
)
