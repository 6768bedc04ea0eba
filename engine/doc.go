// Package engine provides a generic concurrent task-execution engine:
// task submission keyed by caller-chosen ids, a fixed worker pool pulling
// from a shared FIFO queue, and blocking or bulk result retrieval.
//
// The primary type is Engine[R], a long-running pool of workers executing
// Task[R] closures. Every submission gets exactly one Outcome — a value or an
// error — retrievable any number of times by id or through the returned
// Future. Task failures and panics are captured as data; they never kill a
// worker or affect sibling tasks.
//
// # Basic Usage
//
//	eng := engine.New[int](engine.WithWorkerCount(4))
//	_ = eng.Start(ctx)
//	defer eng.Stop(true)
//
//	_, _ = eng.Submit("square-7", func(ctx context.Context) (int, error) {
//	    return 7 * 7, nil
//	})
//	n, err := eng.GetResult("square-7", 5*time.Second)
//
// # Bulk Operations
//
// Map fans a slice out across the pool and returns results in input order,
// independent of completion order. Batch bounds in-flight work by mapping
// consecutive chunks:
//
//	squares, err := engine.Map(ctx, eng, square, []int{1, 2, 3, 4, 5})
//	squares, err = engine.Batch(ctx, eng, square, items, 100)
//
// Map is fail-fast by default; WithContinueOnError(true) switches both bulk
// operations to collect-all semantics.
//
// # Lifecycle
//
// An engine moves strictly forward through Created, Running, Stopping and
// Stopped. Submit is only accepted while Running. Stop(true) drains the
// queue before workers exit; Stop(false) discards queued-but-unstarted items,
// publishing each as a Cancelled outcome. A running task body is never
// preempted. Stop is idempotent.
//
// # Results
//
// Result slots are retained after delivery, so GetResult can be retried after
// a timeout and outcomes can be read repeatedly. Callers that submit ids they
// may never retrieve should release slots with Forget or enable TTL eviction
// with WithResultTTL; with neither, unclaimed results accumulate for the life
// of the engine.
//
// # Configuration Options
//
//   - WithWorkerCount(n): number of workers (default: GOMAXPROCS)
//   - WithQueueCapacity(n): queue bound; Submit fails with ErrQueueFull beyond it
//   - WithQueueStrategy(s): buffered channel (default) or lock-free MPMC ring
//   - WithRetryPolicy(attempts, delay) and WithBackoff(kind, max): retries
//   - WithRateLimit(perSec, burst): throttle task starts
//   - WithContinueOnError(true): collect-all bulk semantics
//   - WithResultTTL(d): evict delivered results nobody claimed
//   - WithCPUAffinity(): pin workers to cores
//   - WithBeforeTask / WithAfterTask / WithOnRetry: execution hooks
package engine
