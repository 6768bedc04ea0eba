package engine_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akash7354/taskmill/engine"
)

func TestEngine_Retry_SucceedsAfterFailures(t *testing.T) {
	eng := engine.New[int](
		engine.WithWorkerCount(1),
		engine.WithRetryPolicy(3, time.Millisecond),
	)

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer eng.Stop(true)

	var attempts atomic.Int32
	_, err := eng.Submit("flaky", func(ctx context.Context) (int, error) {
		if attempts.Add(1) < 3 {
			return 0, errors.New("transient")
		}
		return 99, nil
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	value, err := eng.GetResult("flaky", 5*time.Second)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if value != 99 {
		t.Errorf("expected 99, got %d", value)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestEngine_Retry_ExhaustedReturnsLastError(t *testing.T) {
	eng := engine.New[int](
		engine.WithWorkerCount(1),
		engine.WithRetryPolicy(2, time.Millisecond),
	)

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer eng.Stop(true)

	permanent := errors.New("permanent")
	var attempts atomic.Int32
	_, err := eng.Submit("hopeless", func(ctx context.Context) (int, error) {
		attempts.Add(1)
		return 0, permanent
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	_, err = eng.GetResult("hopeless", 5*time.Second)
	if !errors.Is(err, permanent) {
		t.Errorf("expected the last error, got %v", err)
	}
	if attempts.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts.Load())
	}
}

func TestEngine_Hooks_FireAroundExecution(t *testing.T) {
	var before, after, retries atomic.Int32

	eng := engine.New[int](
		engine.WithWorkerCount(2),
		engine.WithRetryPolicy(2, time.Millisecond),
		engine.WithBeforeTask(func(id string) { before.Add(1) }),
		engine.WithAfterTask(func(id string, err error) { after.Add(1) }),
		engine.WithOnRetry(func(id string, attempt int, err error) { retries.Add(1) }),
	)

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	var calls atomic.Int32
	_, err := eng.Submit("flaky", func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			return 0, errors.New("first attempt fails")
		}
		return 1, nil
	})
	if err != nil {
		t.Fatalf("submit flaky failed: %v", err)
	}
	_, err = eng.Submit("steady", func(ctx context.Context) (int, error) {
		return 2, nil
	})
	if err != nil {
		t.Fatalf("submit steady failed: %v", err)
	}

	if err := eng.Stop(true); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if before.Load() != 2 {
		t.Errorf("expected before hook twice, got %d", before.Load())
	}
	if after.Load() != 2 {
		t.Errorf("expected after hook twice, got %d", after.Load())
	}
	if retries.Load() != 1 {
		t.Errorf("expected one retry notification, got %d", retries.Load())
	}
}

func TestEngine_RateLimit_ThrottlesTaskStarts(t *testing.T) {
	eng := engine.New[int](
		engine.WithWorkerCount(4),
		engine.WithRateLimit(20, 1),
	)

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer eng.Stop(true)

	numTasks := 5
	start := time.Now()

	items := make([]int, numTasks)
	if _, err := engine.Map(context.Background(), eng, square, items); err != nil {
		t.Fatalf("map failed: %v", err)
	}

	// 5 tasks at 20/sec with burst 1 cannot all start instantly; the last
	// start waits roughly 200ms after the first.
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("expected rate limiting to spread starts, finished in %v", elapsed)
	}
}

func TestEngine_QueueStrategies_BehaveIdentically(t *testing.T) {
	strategies := []struct {
		name string
		opt  engine.Option
	}{
		{"Channel", engine.WithQueueStrategy(engine.QueueChannel)},
		{"Ring", engine.WithQueueStrategy(engine.QueueRing)},
	}

	for _, s := range strategies {
		t.Run(s.name, func(t *testing.T) {
			eng := engine.New[int](engine.WithWorkerCount(4), s.opt)

			if err := eng.Start(context.Background()); err != nil {
				t.Fatalf("start failed: %v", err)
			}

			items := make([]int, 50)
			for i := range items {
				items[i] = i
			}

			results, err := engine.Map(context.Background(), eng, square, items)
			if err != nil {
				t.Fatalf("map failed: %v", err)
			}
			for i, n := range items {
				if results[i] != n*n {
					t.Errorf("index %d: expected %d, got %d", i, n*n, results[i])
				}
			}

			if err := eng.Stop(true); err != nil {
				t.Fatalf("stop failed: %v", err)
			}
		})
	}
}
