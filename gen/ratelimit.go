package gen

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// TargetLimiter provides per-target rate limiting using token buckets. Each
// publish target gets its own limiter, so pushes to different targets never
// throttle each other while remote operations within one target respect the
// backend's rate limit.
type TargetLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewTargetLimiter creates a TargetLimiter with the given operations per
// second limit per target, with a burst of 1. A non-positive rps disables
// limiting.
func NewTargetLimiter(rps float64) *TargetLimiter {
	return &TargetLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows an operation against the target.
// Returns an error if the context is canceled before the wait completes.
func (l *TargetLimiter) Wait(ctx context.Context, target string) error {
	if l == nil || l.rps <= 0 {
		return ctx.Err()
	}
	l.mu.Lock()
	limiter, ok := l.limiters[target]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(l.rps), 1)
		l.limiters[target] = limiter
	}
	l.mu.Unlock()

	return limiter.Wait(ctx)
}
