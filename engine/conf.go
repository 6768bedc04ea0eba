package engine

import (
	"runtime"
	"time"

	"golang.org/x/time/rate"

	"github.com/akash7354/taskmill/internal/backoff"
)

// QueueStrategy selects the internal task queue implementation.
type QueueStrategy int

const (
	// QueueChannel uses a buffered Go channel. Simple and fast for typical
	// worker counts; the default.
	QueueChannel QueueStrategy = iota

	// QueueRing uses a lock-free multi-producer multi-consumer ring buffer.
	// Lower contention when many goroutines submit concurrently.
	QueueRing
)

// Backoff kinds for retry delays, re-exported from internal/backoff.
const (
	BackoffExponential = backoff.Exponential
	BackoffLinear      = backoff.Linear
	BackoffJittered    = backoff.Jittered
	BackoffDecorrJit   = backoff.DecorrelatedJitter
)

// defaultQueueCapacity bounds the queue when no capacity is configured.
// Large enough that only pathological submit bursts hit ErrQueueFull.
const defaultQueueCapacity = 65536

// Option is a functional option for configuring an engine.
type Option func(*config)

type config struct {
	workerCount   int
	queueCapacity int
	queueStrategy QueueStrategy

	maxAttempts  int
	backoffKind  backoff.Kind
	initialDelay time.Duration
	maxDelay     time.Duration
	jitterFactor float64

	rateLimiter     *rate.Limiter
	continueOnError bool
	resultTTL       time.Duration
	pinWorkers      bool

	beforeTask BeforeTaskHook
	afterTask  AfterTaskHook
	onRetry    RetryHook
}

func defaultConfig() *config {
	return &config{
		workerCount:   runtime.GOMAXPROCS(0),
		queueCapacity: defaultQueueCapacity,
		queueStrategy: QueueChannel,
		maxAttempts:   1,
		backoffKind:   backoff.Exponential,
		initialDelay:  100 * time.Millisecond,
		maxDelay:      5 * time.Second,
		jitterFactor:  0.1,
	}
}

// WithWorkerCount sets the number of concurrent workers.
// If not specified, defaults to runtime.GOMAXPROCS(0).
func WithWorkerCount(count int) Option {
	return func(cfg *config) {
		if count > 0 {
			cfg.workerCount = count
		}
	}
}

// WithQueueCapacity bounds the task queue. Submit fails with ErrQueueFull when
// the bound is reached instead of blocking or dropping work.
func WithQueueCapacity(capacity int) Option {
	return func(cfg *config) {
		if capacity > 0 {
			cfg.queueCapacity = capacity
		}
	}
}

// WithQueueStrategy selects the queue implementation backing the engine.
func WithQueueStrategy(s QueueStrategy) Option {
	return func(cfg *config) {
		if s == QueueChannel || s == QueueRing {
			cfg.queueStrategy = s
		}
	}
}

// WithRetryPolicy enables retries for failing tasks. maxAttempts is the total
// number of attempts per task; initialDelay seeds the backoff schedule.
func WithRetryPolicy(maxAttempts int, initialDelay time.Duration) Option {
	return func(cfg *config) {
		if maxAttempts > 0 {
			cfg.maxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			cfg.initialDelay = initialDelay
		}
	}
}

// WithBackoff selects the delay schedule used between retry attempts.
// maxDelay caps individual delays; pass 0 to keep the default cap.
func WithBackoff(kind backoff.Kind, maxDelay time.Duration) Option {
	return func(cfg *config) {
		cfg.backoffKind = kind
		if maxDelay > 0 {
			cfg.maxDelay = maxDelay
		}
	}
}

// WithRateLimit throttles task starts across all workers.
// tasksPerSecond is the sustained rate; burst is the bucket size.
//
// Example:
//
//	WithRateLimit(10, 5) // 10 tasks/sec with bursts of 5
func WithRateLimit(tasksPerSecond float64, burst int) Option {
	return func(cfg *config) {
		if tasksPerSecond > 0 && burst > 0 {
			cfg.rateLimiter = rate.NewLimiter(rate.Limit(tasksPerSecond), burst)
		}
	}
}

// WithContinueOnError makes Map and Batch wait for every item instead of
// aborting on the first failure. The first error is still returned alongside
// the results that did succeed.
func WithContinueOnError(continueOnError bool) Option {
	return func(cfg *config) {
		cfg.continueOnError = continueOnError
	}
}

// WithResultTTL enables eviction of delivered-but-unclaimed results. A result
// slot whose outcome has been ready for longer than ttl is released, bounding
// memory when callers never retrieve some ids. Disabled by default.
func WithResultTTL(ttl time.Duration) Option {
	return func(cfg *config) {
		if ttl > 0 {
			cfg.resultTTL = ttl
		}
	}
}

// WithCPUAffinity pins each worker goroutine's OS thread to a CPU core.
// Only useful for CPU-bound workloads with workerCount <= NumCPU.
func WithCPUAffinity() Option {
	return func(cfg *config) {
		cfg.pinWorkers = true
	}
}

// WithBeforeTask registers a hook invoked right before each task body runs.
func WithBeforeTask(hook BeforeTaskHook) Option {
	return func(cfg *config) {
		cfg.beforeTask = hook
	}
}

// WithAfterTask registers a hook invoked after each task body produces its
// outcome, including failures and recovered panics.
func WithAfterTask(hook AfterTaskHook) Option {
	return func(cfg *config) {
		cfg.afterTask = hook
	}
}

// WithOnRetry registers a hook invoked before each retry attempt.
func WithOnRetry(hook RetryHook) Option {
	return func(cfg *config) {
		cfg.onRetry = hook
	}
}
