package gen

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/fwojciec/staticgen"
)

// RetryPolicy encapsulates backoff settings for transient publish failures.
// It is immutable after construction.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry; subsequent delays grow
	// exponentially up to MaxDelay.
	BaseDelay time.Duration
	MaxDelay  time.Duration

	// Jitter disables randomization when false, for deterministic tests.
	Jitter bool
}

// DefaultRetryPolicy returns the default policy: 3 attempts, 500ms base
// delay doubling up to 15s, with jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    15 * time.Second,
		Jitter:      true,
	}
}

// Delay returns the backoff delay before the given retry (1-based: first
// retry => 1). With jitter enabled the delay is drawn uniformly from
// [d/2, d] to avoid synchronized retries across workers.
func (p RetryPolicy) Delay(retry int) time.Duration {
	if retry <= 0 {
		return 0
	}
	d := p.BaseDelay << (retry - 1)
	if p.MaxDelay > 0 && (d > p.MaxDelay || d <= 0) {
		d = p.MaxDelay
	}
	if p.Jitter && d > 1 {
		half := d / 2
		d = half + rand.N(half)
	}
	return d
}

// Retryable reports whether an error is worth retrying. Only transient
// publish failures and backend unavailability qualify; permanent failures
// (auth rejection, malformed paths, non-throttling 4xx) are returned to the
// caller immediately.
func Retryable(err error) bool {
	switch staticgen.ErrorCode(err) {
	case staticgen.EPUBLISHTRANSIENT, staticgen.EUNAVAILABLE:
		return true
	}
	return false
}

// Do runs op, retrying transient failures per the policy. The last error is
// returned once attempts are exhausted. Context cancellation stops the loop
// between attempts.
func Do(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil || !Retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(policy.Delay(attempt)):
		}
	}
	return lastErr
}
