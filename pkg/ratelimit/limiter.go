package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"ljdl/pkg/config"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now
	Allow() bool
	// Wait blocks until the rate limit allows another request or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its full burst
	Reset()
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	limit rate.Limit
	burst int

	mu sync.Mutex
	rl *rate.Limiter
}

// NewTokenBucket allows burst requests at once, refilled at one token per interval
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Every(interval)
	return &TokenBucket{
		limit: limit,
		burst: burst,
		rl:    rate.NewLimiter(limit, burst),
	}
}

// NewPerMinute creates a TokenBucket admitting requestsPerMinute on average
func NewPerMinute(requestsPerMinute, burst int) *TokenBucket {
	return NewTokenBucket(time.Minute/time.Duration(requestsPerMinute), burst)
}

func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.rl = rate.NewLimiter(tb.limit, tb.burst)
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.rl
}

// unlimited admits every request
type unlimited struct{}

// Unlimited returns a Limiter that never blocks
func Unlimited() Limiter {
	return unlimited{}
}

func (unlimited) Allow() bool { return true }

func (unlimited) Wait(ctx context.Context) error { return ctx.Err() }

func (unlimited) Reset() {}

// FromConfig builds the limiter described by cfg. Zero requests per minute disables pacing.
func FromConfig(cfg config.RateLimitConfig) Limiter {
	if cfg.RequestsPerMinute <= 0 {
		return Unlimited()
	}
	return NewPerMinute(cfg.RequestsPerMinute, cfg.BurstSize)
}
