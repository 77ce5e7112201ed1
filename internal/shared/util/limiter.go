package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter throttles watch-mode rescans with a token bucket.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter allows perSecond rescans with the given burst. A non-positive
// rate disables throttling.
func NewLimiter(perSecond float64, burst int) *Limiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{inner: rate.NewLimiter(limit, burst)}
}

// Allow reports whether one rescan may run now.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.inner.AllowN(time.Now(), 1)
}

// Wait blocks until one rescan may run or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.inner.WaitN(ctx, 1)
}
