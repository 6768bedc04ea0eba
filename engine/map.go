package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// MapFunc processes one input item into one result.
type MapFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Map submits one task per item under auto-generated ids and blocks until all
// outcomes are in, returning results in input order regardless of completion
// order. The first failure aborts the wait and is returned (fail-fast) unless
// the engine was built with WithContinueOnError(true), in which case Map waits
// for every item and returns the completed results alongside the first error.
//
// Map cleans up its result slots on return; the engine retains nothing for
// the auto-generated ids.
func Map[T, R any](ctx context.Context, e *Engine[R], fn MapFunc[T, R], items []T) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	ids := make([]string, len(items))
	futures := make([]*Future[R], len(items))

	defer func() {
		for _, id := range ids {
			if id != "" {
				e.Forget(id)
			}
		}
	}()

	for i, item := range items {
		item := item
		id := uuid.NewString()
		fut, err := e.Submit(id, func(ctx context.Context) (R, error) {
			return fn(ctx, item)
		})
		if err != nil {
			return nil, err
		}
		ids[i] = id
		futures[i] = fut
	}

	results := make([]R, len(items))

	if e.conf.continueOnError {
		return results, collectAll(ctx, futures, results)
	}

	// Fail-fast: the errgroup context cancels the remaining waits as soon as
	// any outcome is an error. Workers keep running; only the waiting stops.
	g, gctx := errgroup.WithContext(ctx)
	for i, fut := range futures {
		i, fut := i, fut
		g.Go(func() error {
			value, err := fut.GetContext(gctx)
			if err != nil {
				return err
			}
			results[i] = value
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// collectAll waits for every future and records the first task error.
func collectAll[R any](ctx context.Context, futures []*Future[R], results []R) error {
	var (
		mu       sync.Mutex
		firstErr error
	)

	var wg sync.WaitGroup
	for i, fut := range futures {
		i, fut := i, fut
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := fut.GetContext(ctx)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			results[i] = value
		}()
	}
	wg.Wait()

	return firstErr
}

// Batch is Map with a bound on in-flight work: items are partitioned into
// consecutive chunks of batchSize and each chunk is mapped before the next
// starts. Results are identical to a single Map over the same items; chunking
// only limits concurrency pressure. A non-positive batchSize processes
// everything in one chunk.
func Batch[T, R any](ctx context.Context, e *Engine[R], fn MapFunc[T, R], items []T, batchSize int) ([]R, error) {
	if len(items) == 0 {
		return []R{}, nil
	}
	if batchSize <= 0 || batchSize > len(items) {
		batchSize = len(items)
	}

	out := make([]R, 0, len(items))
	for start := 0; start < len(items); start += batchSize {
		end := min(start+batchSize, len(items))

		chunk, err := Map(ctx, e, fn, items[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}
