package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/akash7354/taskmill/internal/backoff"
)

// Engine is a generic concurrent task-execution engine: a fixed pool of
// workers pulling from one shared FIFO queue, publishing outcomes keyed by
// task id. Callers construct and own an engine instance; there are no
// process-wide singletons.
//
// Type parameters:
//   - R: The result type produced by submitted tasks
type Engine[R any] struct {
	conf    *config
	backoff backoff.Strategy

	mu    sync.RWMutex
	state atomic.Int32

	queue taskQueue[R]
	box   *resultBox[R]

	quit chan struct{} // closed by Stop(drain=false); workers stop dequeuing
	done chan struct{} // closed when all workers have joined

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	cancelled atomic.Int64
}

// Stats is a point-in-time snapshot of engine activity.
type Stats struct {
	State       State
	Workers     int
	QueueDepth  int
	ResultSlots int
	Submitted   int64
	Completed   int64
	Failed      int64
	Cancelled   int64
}

// New creates an engine with the given options. No workers are spawned until
// Start is called.
//
// Example:
//
//	eng := engine.New[string](engine.WithWorkerCount(8))
//	_ = eng.Start(ctx)
//	fut, _ := eng.Submit("job-1", fetchTitle)
//	title, err := fut.Get()
func New[R any](opts ...Option) *Engine[R] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return &Engine[R]{
		conf:    cfg,
		backoff: backoff.New(cfg.backoffKind, cfg.initialDelay, cfg.maxDelay, cfg.jitterFactor),
		queue:   newTaskQueue[R](cfg.queueStrategy, cfg.queueCapacity),
		box:     newResultBox[R](),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start transitions the engine from Created to Running and spawns the worker
// goroutines. ctx bounds the lifetime of all task execution: cancelling it
// stops the workers, so normally it should outlive the engine and shutdown
// should happen through Stop.
func (e *Engine[R]) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s := e.loadState(); s != StateCreated {
		return invalidStateErr("Start", s)
	}

	var g errgroup.Group
	for i := 0; i < e.conf.workerCount; i++ {
		i := i
		g.Go(func() error {
			return e.workerLoop(ctx, i)
		})
	}

	go func() {
		_ = g.Wait()
		close(e.done)
	}()

	if e.conf.resultTTL > 0 {
		go e.sweepLoop()
	}

	e.state.Store(int32(StateRunning))
	return nil
}

// Submit enqueues one task under the caller-chosen id and returns the id's
// future. Fails with ErrInvalidState unless the engine is Running, with
// ErrDuplicateID while the id has a live result slot, and with ErrQueueFull
// when the queue cannot take the item — the task is never silently dropped.
func (e *Engine[R]) Submit(id string, fn Task[R]) (*Future[R], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if s := e.loadState(); s != StateRunning {
		return nil, invalidStateErr("Submit", s)
	}
	if fn == nil {
		return nil, fmt.Errorf("nil task for id %q", id)
	}

	fut, err := e.box.claim(id)
	if err != nil {
		return nil, err
	}

	if err := e.queue.Enqueue(&workItem[R]{id: id, run: fn, fut: fut}); err != nil {
		e.box.forget(id)
		return nil, err
	}

	e.submitted.Add(1)
	return fut, nil
}

// GetResult blocks until the outcome for id is published or timeout elapses.
// A non-positive timeout waits forever. On expiry it returns ErrTimeout; the
// result is not lost and the call can be retried. Task failures come back
// wrapped in *TaskError, unwrapping to the original cause.
func (e *Engine[R]) GetResult(id string, timeout time.Duration) (R, error) {
	if timeout <= 0 {
		return e.box.await(context.Background(), id)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	value, err := e.box.await(ctx, id)
	if errors.Is(err, context.DeadlineExceeded) {
		var zero R
		return zero, fmt.Errorf("%w: task %q after %s", ErrTimeout, id, timeout)
	}
	return value, err
}

// GetResultContext is GetResult with caller-controlled cancellation.
func (e *Engine[R]) GetResultContext(ctx context.Context, id string) (R, error) {
	return e.box.await(ctx, id)
}

// TryResult returns id's outcome without blocking. ready is false while the
// task has not finished. Fails with ErrUnknownID for ids without a live slot.
func (e *Engine[R]) TryResult(id string) (value R, err error, ready bool) {
	fut, lookupErr := e.box.lookup(id)
	if lookupErr != nil {
		var zero R
		return zero, lookupErr, false
	}
	return fut.TryGet()
}

// Forget releases id's result slot, making the id reusable and freeing its
// memory. Forgetting an id whose task has not finished discards the outcome
// for id-based retrieval; futures already handed out still fulfill.
func (e *Engine[R]) Forget(id string) {
	e.box.forget(id)
}

// Stop shuts the engine down and waits for the workers to join.
//
// With drain=true every queued item is executed before workers exit. With
// drain=false workers stop after their in-flight item and each leftover
// queued item is published as a Cancelled outcome — reported, not silently
// lost. A running task body is never preempted.
//
// Stop is idempotent: calls after the first are no-ops returning nil.
func (e *Engine[R]) Stop(drain bool) error {
	return e.StopTimeout(drain, 0)
}

// StopTimeout is Stop with a bound on how long to wait for workers to join.
// On ErrShutdownTimeout the engine stays in Stopping; results already
// published remain retrievable.
func (e *Engine[R]) StopTimeout(drain bool, timeout time.Duration) error {
	e.mu.Lock()
	switch e.loadState() {
	case StateCreated:
		// Nothing ever ran; jump straight to Stopped.
		e.state.Store(int32(StateStopped))
		e.queue.Close()
		close(e.done)
		e.mu.Unlock()
		return nil
	case StateStopping, StateStopped:
		e.mu.Unlock()
		return nil
	}

	e.state.Store(int32(StateStopping))
	if drain {
		e.queue.Close()
	} else {
		close(e.quit)
	}
	e.mu.Unlock()

	if err := waitUntil(e.done, timeout); err != nil {
		return err
	}

	if !drain {
		// Workers have joined; whatever is left in the queue was never
		// started. Report each item as cancelled.
		for {
			it, ok := e.queue.TryDequeue()
			if !ok {
				break
			}
			it.fut.publish(Outcome[R]{
				Err: fmt.Errorf("%w: task %q was queued but never started", ErrCancelled, it.id),
			})
			e.cancelled.Add(1)
		}
		e.queue.Close()
	}

	e.mu.Lock()
	e.state.Store(int32(StateStopped))
	e.mu.Unlock()
	return nil
}

// State returns the engine's lifecycle state.
func (e *Engine[R]) State() State {
	return e.loadState()
}

// Stats returns a snapshot of engine activity. Queue depth is approximate
// while workers are running.
func (e *Engine[R]) Stats() Stats {
	return Stats{
		State:       e.loadState(),
		Workers:     e.conf.workerCount,
		QueueDepth:  e.queue.Len(),
		ResultSlots: e.box.len(),
		Submitted:   e.submitted.Load(),
		Completed:   e.completed.Load(),
		Failed:      e.failed.Load(),
		Cancelled:   e.cancelled.Load(),
	}
}

func (e *Engine[R]) loadState() State {
	return State(e.state.Load())
}

// sweepLoop evicts delivered-but-unclaimed results older than the configured
// TTL until the workers have joined.
func (e *Engine[R]) sweepLoop() {
	interval := e.conf.resultTTL / 2
	if interval < time.Millisecond {
		interval = time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.box.sweep(e.conf.resultTTL)
		case <-e.done:
			return
		}
	}
}
