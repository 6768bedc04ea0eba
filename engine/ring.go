package engine

import (
	"context"
	"runtime"
	"sync/atomic"
)

const (
	// cacheLine padding size to keep hot indices on separate cache lines.
	cacheLine = 128

	// spins before a dequeuer parks on the notify channel.
	maxSpins = 10
)

// ringSlot is one cell of the ring. The sequence number encodes whether the
// slot currently belongs to producers or consumers.
type ringSlot[R any] struct {
	sequence uint64
	item     *workItem[R]
	_        [cacheLine - 16]byte
}

// ringQueue is a bounded lock-free multi-producer multi-consumer FIFO queue
// (sequence-numbered ring buffer). Producers and consumers claim positions
// with CAS on tail/head; the per-slot sequence mediates the hand-off.
//
// Dequeuers spin briefly, then park on a notification channel so an idle
// worker costs nothing. The notify channel is buffered and never closed;
// shutdown is signalled through a separate close channel.
type ringQueue[R any] struct {
	ring []ringSlot[R]
	mask uint64

	_    [cacheLine]byte
	head uint64
	_    [cacheLine - 8]byte
	tail uint64
	_    [cacheLine - 8]byte

	closed atomic.Bool

	notifyC chan struct{}
	closeC  chan struct{}

	capacity int
}

func newRingQueue[R any](capacity int) *ringQueue[R] {
	if capacity <= 0 {
		capacity = defaultQueueCapacity
	}
	capacity = nextPowerOfTwo(capacity)

	ring := make([]ringSlot[R], capacity)
	for i := range ring {
		ring[i].sequence = uint64(i)
	}

	return &ringQueue[R]{
		ring:     ring,
		mask:     uint64(capacity - 1),
		capacity: capacity,
		notifyC:  make(chan struct{}, 1),
		closeC:   make(chan struct{}),
	}
}

// Enqueue claims the next tail slot and stores the item. Returns ErrQueueFull
// when the ring has no free slot and ErrQueueClosed after Close.
func (q *ringQueue[R]) Enqueue(it *workItem[R]) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}

	spins := 0
	for {
		tail := atomic.LoadUint64(&q.tail)
		slot := &q.ring[tail&q.mask]
		seq := atomic.LoadUint64(&slot.sequence)
		diff := int64(seq) - int64(tail)

		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.tail, tail, tail+1) {
				slot.item = it
				atomic.StoreUint64(&slot.sequence, tail+1)
				select {
				case q.notifyC <- struct{}{}:
				default:
				}
				return nil
			}
		case diff < 0:
			// Slot still owned by a consumer one lap behind: ring is full.
			return ErrQueueFull
		default:
			spins++
			if spins > maxSpins {
				runtime.Gosched()
				spins = 0
			}
		}
	}
}

// Dequeue removes the item at head, blocking until one is available.
// Returns ErrQueueClosed once the queue is closed and drained.
func (q *ringQueue[R]) Dequeue(ctx context.Context, quit <-chan struct{}) (*workItem[R], error) {
	select {
	case <-quit:
		return nil, errStopRequested
	default:
	}

	spins := 0
	for {
		if q.drainedAndClosed() {
			return nil, ErrQueueClosed
		}

		if it, ok := q.TryDequeue(); ok {
			return it, nil
		}

		spins++
		if spins < maxSpins {
			runtime.Gosched()
			continue
		}

		select {
		case <-quit:
			return nil, errStopRequested
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-q.closeC:
			if q.drainedAndClosed() {
				return nil, ErrQueueClosed
			}
			spins = 0
		case <-q.notifyC:
			spins = 0
		}
	}
}

// TryDequeue attempts one dequeue without blocking.
func (q *ringQueue[R]) TryDequeue() (*workItem[R], bool) {
	for {
		head := atomic.LoadUint64(&q.head)
		slot := &q.ring[head&q.mask]
		seq := atomic.LoadUint64(&slot.sequence)
		diff := int64(seq) - int64(head+1)

		switch {
		case diff == 0:
			if atomic.CompareAndSwapUint64(&q.head, head, head+1) {
				it := slot.item
				slot.item = nil
				// Hand the slot back to producers one lap ahead.
				atomic.StoreUint64(&slot.sequence, head+q.mask+1)
				return it, true
			}
		case diff < 0:
			return nil, false
		default:
			// A producer claimed the slot but has not published yet.
			runtime.Gosched()
		}
	}
}

func (q *ringQueue[R]) drainedAndClosed() bool {
	if !q.closed.Load() {
		return false
	}
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	return head >= tail
}

func (q *ringQueue[R]) Close() {
	if q.closed.CompareAndSwap(false, true) {
		close(q.closeC)
	}
}

// Len returns the approximate number of queued items.
func (q *ringQueue[R]) Len() int {
	head := atomic.LoadUint64(&q.head)
	tail := atomic.LoadUint64(&q.tail)
	if tail > head {
		return int(tail - head)
	}
	return 0
}
