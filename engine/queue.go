package engine

import (
	"context"
	"errors"
	"sync"
)

// errStopRequested is the internal dequeue result when the engine's quit
// signal fires. Workers treat it as a clean exit.
var errStopRequested = errors.New("stop requested")

// taskQueue is the FIFO hand-off between Submit and the workers. Enqueue never
// blocks: a full queue surfaces ErrQueueFull to the submitter. Dequeue blocks
// until an item, queue closure, quit, or context cancellation.
type taskQueue[R any] interface {
	Enqueue(it *workItem[R]) error
	Dequeue(ctx context.Context, quit <-chan struct{}) (*workItem[R], error)
	TryDequeue() (*workItem[R], bool)
	Close()
	Len() int
}

func newTaskQueue[R any](strategy QueueStrategy, capacity int) taskQueue[R] {
	if strategy == QueueRing {
		return newRingQueue[R](capacity)
	}
	return newChannelQueue[R](capacity)
}

// channelQueue backs the queue with a buffered channel. The mutex only guards
// the closed flag so Enqueue never races a send against Close.
type channelQueue[R any] struct {
	mu     sync.RWMutex
	ch     chan *workItem[R]
	closed bool
}

func newChannelQueue[R any](capacity int) *channelQueue[R] {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	return &channelQueue[R]{
		ch: make(chan *workItem[R], capacity),
	}
}

func (q *channelQueue[R]) Enqueue(it *workItem[R]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.ch <- it:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *channelQueue[R]) Dequeue(ctx context.Context, quit <-chan struct{}) (*workItem[R], error) {
	// Prefer quit over a buffered item so a no-drain stop discards queued
	// work instead of racing it into a worker.
	select {
	case <-quit:
		return nil, errStopRequested
	default:
	}

	select {
	case it, ok := <-q.ch:
		if !ok {
			return nil, ErrQueueClosed
		}
		return it, nil
	case <-quit:
		return nil, errStopRequested
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *channelQueue[R]) TryDequeue() (*workItem[R], bool) {
	select {
	case it, ok := <-q.ch:
		if !ok {
			return nil, false
		}
		return it, true
	default:
		return nil, false
	}
}

func (q *channelQueue[R]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.ch)
	}
}

func (q *channelQueue[R]) Len() int {
	return len(q.ch)
}
