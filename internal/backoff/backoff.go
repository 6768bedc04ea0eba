// Package backoff provides retry delay schedules for the task engine.
// All strategies are safe for concurrent use by multiple workers.
package backoff

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// Kind selects a delay schedule.
type Kind int

const (
	// Exponential doubles the delay on each attempt: initial * 2^attempt.
	Exponential Kind = iota

	// Linear grows the delay arithmetically: initial * (attempt + 1).
	Linear

	// Jittered is exponential with +/- jitterFactor randomization, spreading
	// out retries from tasks that failed at the same moment.
	Jittered

	// DecorrelatedJitter implements AWS-style decorrelated jitter:
	// sleep = min(maxDelay, random(initial, prevSleep * 3)). Each delay
	// depends on the previous one rather than the attempt number, which
	// naturally decorrelates concurrent failures.
	DecorrelatedJitter
)

// maxShift caps the exponent so the multiplication cannot overflow.
const maxShift = 62

// Strategy computes the delay before a retry attempt. attempt is 0-indexed:
// 0 is the delay before the first retry.
type Strategy interface {
	NextDelay(attempt int, lastErr error) time.Duration
	Reset()
}

// New builds a Strategy for the given kind. jitterFactor is only used by
// Jittered and is clamped to [0, 1].
func New(kind Kind, initialDelay, maxDelay time.Duration, jitterFactor float64) Strategy {
	switch kind {
	case Linear:
		return &linear{initial: initialDelay, max: maxDelay}
	case Jittered:
		return &jittered{
			initial: initialDelay,
			max:     maxDelay,
			factor:  clamp(jitterFactor, 0, 1),
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter does not need crypto rand
		}
	case DecorrelatedJitter:
		return &decorrelated{
			initial: initialDelay,
			max:     maxDelay,
			prev:    initialDelay,
			rng:     rand.New(rand.NewSource(time.Now().UnixNano())), // #nosec G404 -- jitter does not need crypto rand
		}
	default:
		return &exponential{initial: initialDelay, max: maxDelay}
	}
}

type exponential struct {
	initial, max time.Duration
}

func (e *exponential) NextDelay(attempt int, _ error) time.Duration {
	return expDelay(attempt, e.initial, e.max)
}

func (e *exponential) Reset() {}

type linear struct {
	initial, max time.Duration
}

func (l *linear) NextDelay(attempt int, _ error) time.Duration {
	if attempt < 0 {
		return 0
	}
	d := time.Duration(attempt+1) * l.initial
	if l.max > 0 && d > l.max {
		return l.max
	}
	return d
}

func (l *linear) Reset() {}

type jittered struct {
	initial, max time.Duration
	factor       float64
	mu           sync.Mutex
	rng          *rand.Rand
}

func (j *jittered) NextDelay(attempt int, _ error) time.Duration {
	if attempt < 0 {
		return 0
	}
	base := expDelay(attempt, j.initial, j.max)

	j.mu.Lock()
	mult := 1.0 + (j.rng.Float64()*2-1)*j.factor
	j.mu.Unlock()

	d := time.Duration(float64(base) * mult)
	return clamp(d, 0, j.max)
}

func (j *jittered) Reset() {}

type decorrelated struct {
	initial, max time.Duration
	mu           sync.Mutex
	prev         time.Duration
	rng          *rand.Rand
}

func (d *decorrelated) NextDelay(attempt int, _ error) time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()

	if attempt <= 0 {
		d.prev = d.initial
		return d.initial
	}

	upper := time.Duration(float64(d.prev) * 3)
	if d.max > 0 && upper > d.max {
		upper = d.max
	}

	span := upper - d.initial
	if span <= 0 {
		d.prev = d.initial
		return d.initial
	}

	delay := d.initial + time.Duration(d.rng.Int63n(int64(span)))
	d.prev = delay
	return delay
}

func (d *decorrelated) Reset() {
	d.mu.Lock()
	d.prev = d.initial
	d.mu.Unlock()
}

// expDelay computes initial * 2^attempt capped at max, guarding against
// overflow for large attempt counts.
func expDelay(attempt int, initial, max time.Duration) time.Duration {
	if attempt < 0 || initial <= 0 {
		return 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}

	d := time.Duration(float64(initial) * math.Pow(2, float64(attempt)))
	if d <= 0 || (max > 0 && d > max) {
		return max
	}
	return d
}

func clamp[T int | float64 | time.Duration](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
