package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/toolwire/toolwire/domain"
)

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc func(*domain.Request) string
	logger  Logger
}

// WithRateLimitKeyFunc sets a function to extract a rate limit key from
// calls. This allows per-client or per-tool rate limiting.
func WithRateLimitKeyFunc(fn func(*domain.Request) string) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.keyFunc = fn
	}
}

// WithRateLimitLogger sets the logger for rate limit events.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.logger = l
	}
}

// RateLimit returns middleware that limits call rate using a token bucket
// algorithm. The rate is specified as calls per second. Burst allows
// short bursts above the rate limit. Rejected calls fail with an
// execution fault.
func RateLimit(rate int, burst int, opts ...RateLimitOption) Middleware {
	cfg := &rateLimitConfig{
		keyFunc: func(_ *domain.Request) string { return "global" },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
			key := cfg.keyFunc(call)

			if !limiter.Allow(ctx, key) {
				if cfg.logger != nil {
					cfg.logger.Warn("rate limit exceeded",
						F("tool", call.Tool),
						F("key", key),
					)
				}
				return nil, domain.NewExecution("rate limit exceeded")
			}

			return next(ctx, call)
		}
	}
}

// RateLimitByTool returns rate limiting middleware that applies per-tool limits.
func RateLimitByTool(rate int, burst int, opts ...RateLimitOption) Middleware {
	allOpts := append([]RateLimitOption{
		WithRateLimitKeyFunc(func(call *domain.Request) string {
			return call.Tool
		}),
	}, opts...)
	return RateLimit(rate, burst, allOpts...)
}
