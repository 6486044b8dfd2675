package llm

import (
	"context"
	"math/rand"
	"net/http"
	"time"
)

const (
	defaultMaxRetries     = 3
	defaultRetryDelay     = 2 * time.Second
	defaultAttemptTimeout = 30 * time.Second
)

// returns the wait before the next attempt; attempt is zero-based
type Backoff func(attempt int, delay time.Duration) time.Duration

// decides whether an HTTP status deserves another attempt
type RetryablePredicate func(statusCode int) bool

// governs how a chat request is retried
type RetryPolicy struct {
	MaxRetries     int
	AttemptTimeout time.Duration // connect + response headers, per attempt
	Delay          time.Duration
	Backoff        Backoff
	Retryable      RetryablePredicate

	// aborts a stream that stays silent this long, 0 waits forever
	IdleTimeout time.Duration
}

// 3 attempts, 30s each, fixed 2s delay, only 502 retried
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     defaultMaxRetries,
		AttemptTimeout: defaultAttemptTimeout,
		Delay:          defaultRetryDelay,
		Backoff:        FixedBackoff,
		Retryable:      RetryBadGateway,
	}
}

// always waits the configured delay
func FixedBackoff(_ int, delay time.Duration) time.Duration {
	return delay
}

// doubles the delay each attempt with up to 10% jitter, capped at one minute
func ExponentialBackoff(attempt int, delay time.Duration) time.Duration {
	const maxDelay = 60 * time.Second

	d := time.Duration(1<<attempt) * delay
	if d > maxDelay || d <= 0 {
		d = maxDelay
	}

	return d + time.Duration(rand.Float64()*float64(d)*0.1) //nolint:gosec // jitter only
}

// treats 502 as the single transient status
func RetryBadGateway(statusCode int) bool {
	return statusCode == http.StatusBadGateway
}

// builds a predicate from an explicit status list
func RetryStatuses(codes ...int) RetryablePredicate {
	set := make(map[int]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}

	return func(statusCode int) bool {
		_, ok := set[statusCode]
		return ok
	}
}

// fills zero fields with defaults
func (p RetryPolicy) normalized() RetryPolicy {
	def := DefaultRetryPolicy()

	if p.MaxRetries <= 0 {
		p.MaxRetries = def.MaxRetries
	}

	if p.AttemptTimeout <= 0 {
		p.AttemptTimeout = def.AttemptTimeout
	}

	if p.Delay < 0 {
		p.Delay = 0
	}

	if p.Backoff == nil {
		p.Backoff = def.Backoff
	}

	if p.Retryable == nil {
		p.Retryable = def.Retryable
	}

	return p
}

// blocks for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
