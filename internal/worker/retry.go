package worker

import (
	"math"
	"time"
)

// RetryPolicy controls how a failed sheet task is retried. Zero fields take
// the defaults below.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

const (
	defaultMaxRetries    = 5
	defaultInitialDelay  = 2 * time.Second
	defaultMaxDelay      = time.Minute
	defaultBackoffFactor = 2
)

func (r RetryPolicy) withDefaults() RetryPolicy {
	if r.MaxRetries <= 0 {
		r.MaxRetries = defaultMaxRetries
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = defaultInitialDelay
	}
	if r.MaxDelay <= 0 {
		r.MaxDelay = defaultMaxDelay
	}
	if r.BackoffFactor <= 1 {
		r.BackoffFactor = defaultBackoffFactor
	}
	return r
}

// ShouldRetry reports whether a task that has failed attempts times gets
// another try before it is dead-lettered.
func (r RetryPolicy) ShouldRetry(attempts int) bool {
	return attempts < r.withDefaults().MaxRetries
}

// NextDelay is the wait before retry number attempt (1-based), capped at
// MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	r = r.withDefaults()
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1))
	if delay > float64(r.MaxDelay) || math.IsInf(delay, 1) {
		return r.MaxDelay
	}
	return time.Duration(delay)
}
