package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/akash7354/taskmill/internal/cpu"
)

// workerLoop is the dequeue-execute-publish loop run by each worker goroutine.
// It exits cleanly on queue closure (drain stop), on the quit signal (no-drain
// stop), or on context cancellation. A failing task never exits the loop.
func (e *Engine[R]) workerLoop(ctx context.Context, workerID int) error {
	if e.conf.pinWorkers {
		unpin := cpu.PinWorker(workerID)
		defer unpin()
	}

	for {
		it, err := e.queue.Dequeue(ctx, e.quit)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, errStopRequested) {
				return nil
			}
			return err
		}
		e.execute(ctx, it)
	}
}

// execute runs one item and publishes its outcome. Task-body failures and
// panics become Err outcomes; they never propagate out of the worker, so one
// bad task cannot kill a worker or its sibling tasks.
func (e *Engine[R]) execute(ctx context.Context, it *workItem[R]) {
	if lim := e.conf.rateLimiter; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			e.finish(it, Outcome[R]{Err: &TaskError{ID: it.id, Err: err}})
			return
		}
	}

	if hook := e.conf.beforeTask; hook != nil {
		hook(it.id)
	}

	value, err := e.runWithRecovery(ctx, it)

	if hook := e.conf.afterTask; hook != nil {
		hook(it.id, err)
	}

	out := Outcome[R]{Value: value}
	if err != nil {
		out = Outcome[R]{Err: &TaskError{ID: it.id, Err: err}}
	}
	e.finish(it, out)
}

func (e *Engine[R]) finish(it *workItem[R], out Outcome[R]) {
	it.fut.publish(out)
	if out.Err != nil {
		e.failed.Add(1)
	} else {
		e.completed.Add(1)
	}
	debugLog("task %s finished err=%v", it.id, out.Err)
}

// runWithRecovery invokes the task body with panic recovery and the
// configured retry policy. A panic aborts remaining attempts and is converted
// to an error carrying the stack.
func (e *Engine[R]) runWithRecovery(ctx context.Context, it *workItem[R]) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("task panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	attempts := max(e.conf.maxAttempts, 1)

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := e.backoff.NextDelay(attempt-1, err)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return value, ctx.Err()
			}
		}

		value, err = it.run(ctx)
		if err == nil {
			return value, nil
		}

		if e.conf.onRetry != nil && attempt < attempts-1 {
			e.conf.onRetry(it.id, attempt+1, err)
		}
	}

	return value, err
}
