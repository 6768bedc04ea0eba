package engine

import (
	"context"
	"sync"
	"time"
)

// resultBox correlates task ids with their futures. A slot is claimed at
// submission time so a caller can start waiting before the task has run.
// Slots are retained after delivery (results are multi-read and a timed-out
// wait can be retried); memory is bounded by the optional TTL sweep or by
// explicit forget calls.
type resultBox[R any] struct {
	mu    sync.RWMutex
	slots map[string]*Future[R]
}

func newResultBox[R any]() *resultBox[R] {
	return &resultBox[R]{
		slots: make(map[string]*Future[R]),
	}
}

// claim reserves a slot for id and returns its future.
// Returns ErrDuplicateID while a live slot exists for the same id.
func (b *resultBox[R]) claim(id string) (*Future[R], error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.slots[id]; exists {
		return nil, ErrDuplicateID
	}
	fut := newFuture[R]()
	b.slots[id] = fut
	return fut, nil
}

// lookup returns id's future without waiting on it.
func (b *resultBox[R]) lookup(id string) (*Future[R], error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fut, ok := b.slots[id]
	if !ok {
		return nil, ErrUnknownID
	}
	return fut, nil
}

// await blocks until id's outcome is published or ctx is done.
func (b *resultBox[R]) await(ctx context.Context, id string) (R, error) {
	b.mu.RLock()
	fut, ok := b.slots[id]
	b.mu.RUnlock()

	if !ok {
		var zero R
		return zero, ErrUnknownID
	}
	return fut.GetContext(ctx)
}

// forget releases id's slot, making the id reusable. The future itself stays
// valid for holders that already have it; an in-flight task for a forgotten id
// still fulfills the future, the outcome is just no longer reachable by id.
func (b *resultBox[R]) forget(id string) {
	b.mu.Lock()
	delete(b.slots, id)
	b.mu.Unlock()
}

// sweep releases slots whose outcome has been ready for longer than ttl.
// Pending slots are never evicted.
func (b *resultBox[R]) sweep(ttl time.Duration) {
	cutoff := time.Now().Add(-ttl)

	b.mu.Lock()
	defer b.mu.Unlock()
	for id, fut := range b.slots {
		if at, ready := fut.readySince(); ready && at.Before(cutoff) {
			delete(b.slots, id)
		}
	}
}

// len returns the number of live slots.
func (b *resultBox[R]) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.slots)
}
