package middleware

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/toolwire/toolwire/domain"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const traceIDKey contextKey = "traceID"

// TraceID returns middleware that injects a unique trace ID into the
// context. The trace ID identifies one handled call across log lines and
// spans; it is unrelated to the caller-assigned call id. If a trace ID
// already exists in the context, it is preserved.
func TraceID() Middleware {
	return TraceIDWithGenerator(uuid.NewString)
}

// TraceIDWithGenerator returns middleware that uses a custom ID generator.
func TraceIDWithGenerator(generator func() string) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
			if existing := TraceIDFromContext(ctx); existing != "" {
				return next(ctx, call)
			}

			ctx = ContextWithTraceID(ctx, generator())
			return next(ctx, call)
		}
	}
}

// TraceIDFromContext returns the trace ID from the context, or empty string if not set.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// ContextWithTraceID returns a new context with the trace ID set.
func ContextWithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}
