package engine

import (
	"context"
	"sync"
	"time"
)

// Future is the read side of one task's outcome. It is fulfilled exactly once
// by the worker that executed the task (or by the engine when the item is
// cancelled) and may be read any number of times by any number of goroutines.
type Future[R any] struct {
	mu      sync.RWMutex
	done    chan struct{}
	outcome Outcome[R]
	ready   bool
	readyAt time.Time
}

func newFuture[R any]() *Future[R] {
	return &Future[R]{
		done: make(chan struct{}),
	}
}

// publish fulfills the future. The first call wins; later calls are ignored,
// preserving the single-writer invariant.
func (f *Future[R]) publish(out Outcome[R]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ready {
		return
	}
	f.outcome = out
	f.ready = true
	f.readyAt = time.Now()
	close(f.done)
}

// Get blocks until the outcome is available and returns it.
func (f *Future[R]) Get() (R, error) {
	return f.GetContext(context.Background())
}

// GetContext blocks until the outcome is available or ctx is done. A context
// error does not consume the result; the call can be retried.
func (f *Future[R]) GetContext(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		f.mu.RLock()
		defer f.mu.RUnlock()
		return f.outcome.Value, f.outcome.Err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// GetTimeout blocks for at most d. A non-positive d waits forever.
func (f *Future[R]) GetTimeout(d time.Duration) (R, error) {
	if d <= 0 {
		return f.Get()
	}
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return f.GetContext(ctx)
}

// TryGet returns the outcome without blocking. ready reports whether the
// returned value and error are meaningful.
func (f *Future[R]) TryGet() (value R, err error, ready bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if !f.ready {
		var zero R
		return zero, nil, false
	}
	return f.outcome.Value, f.outcome.Err, true
}

// Done returns a channel closed when the outcome is available, for use in
// select statements.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// IsReady reports whether the outcome is available.
func (f *Future[R]) IsReady() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.ready
}

// readySince returns when the outcome became available. ok is false while the
// future is still pending. Used by the result TTL sweeper.
func (f *Future[R]) readySince() (time.Time, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.readyAt, f.ready
}
