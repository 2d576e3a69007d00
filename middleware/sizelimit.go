package middleware

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/toolwire/toolwire/domain"
)

// SizeLimitOption configures the size limit middleware.
type SizeLimitOption func(*sizeLimitConfig)

type sizeLimitConfig struct {
	logger Logger
}

// WithSizeLimitLogger sets the logger for size limit events.
func WithSizeLimitLogger(l Logger) SizeLimitOption {
	return func(o *sizeLimitConfig) {
		o.logger = l
	}
}

// SizeLimit returns middleware that rejects calls whose parameters exceed
// the specified size in bytes. Rejected calls fail with an invalid
// params fault.
func SizeLimit(maxBytes int64, opts ...SizeLimitOption) Middleware {
	cfg := &sizeLimitConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
			size := int64(len(call.Params))
			if size > maxBytes {
				if cfg.logger != nil {
					cfg.logger.Warn("params size limit exceeded",
						F("tool", call.Tool),
						F("size", size),
						F("max", maxBytes),
					)
				}
				return nil, domain.NewInvalidParams(
					fmt.Sprintf("params size %d exceeds limit of %d bytes", size, maxBytes))
			}

			return next(ctx, call)
		}
	}
}

// Common size limit presets.
const (
	// KB is 1024 bytes.
	KB = 1024
	// MB is 1024 * 1024 bytes.
	MB = 1024 * 1024
)
