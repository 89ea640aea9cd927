// Package ratelimit paces outgoing requests.
//
// TokenBucket wraps golang.org/x/time/rate; Unlimited is used when pacing
// is disabled, which is the default. Both satisfy Limiter, so callers wait
// the same way either way:
//
//	limiter := ratelimit.FromConfig(cfg.RateLimit)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
