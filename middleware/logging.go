package middleware

import (
	"context"
	"encoding/json"
	"time"

	"github.com/toolwire/toolwire/domain"
)

// Logger is the interface for structured logging.
type Logger interface {
	Info(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
}

// Field represents a key-value pair for structured logging.
type Field struct {
	Key   string
	Value any
}

// F creates a new Field with the given key and value.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Logging returns middleware that logs call details.
// Successful calls are logged at info level, failures at error level.
func Logging(logger Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
			start := time.Now()

			result, err := next(ctx, call)

			duration := time.Since(start)

			fields := []Field{
				F("tool", call.Tool),
				F("call_id", call.ID),
				F("duration", duration),
			}

			if traceID := TraceIDFromContext(ctx); traceID != "" {
				fields = append(fields, F("trace_id", traceID))
			}

			if err != nil {
				fields = append(fields, F("error", err.Error()))
				logger.Error("call failed", fields...)
			} else {
				logger.Info("call completed", fields...)
			}

			return result, err
		}
	}
}

// NopLogger is a logger that discards all log entries.
type NopLogger struct{}

func (NopLogger) Info(msg string, fields ...Field)  {}
func (NopLogger) Error(msg string, fields ...Field) {}
func (NopLogger) Debug(msg string, fields ...Field) {}
func (NopLogger) Warn(msg string, fields ...Field)  {}
