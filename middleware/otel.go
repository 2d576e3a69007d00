package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/toolwire/toolwire/domain"
)

const (
	instrumentationName = "github.com/toolwire/toolwire"
)

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	skipTools      map[string]bool
}

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithOTelServiceName sets the service name for telemetry.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// WithOTelSkipTools specifies tools to skip for tracing.
func WithOTelSkipTools(tools ...string) OTelOption {
	return func(c *otelConfig) {
		for _, name := range tools {
			c.skipTools[name] = true
		}
	}
}

// OTel returns middleware that adds OpenTelemetry tracing and metrics.
// It creates a span for each call and records call counts and latency.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "toolwire",
		skipTools:      make(map[string]bool),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(
		instrumentationName,
		trace.WithInstrumentationVersion("1.0.0"),
	)

	meter := cfg.meterProvider.Meter(
		instrumentationName,
		metric.WithInstrumentationVersion("1.0.0"),
	)

	callCounter, _ := meter.Int64Counter(
		"rpc.server.calls",
		metric.WithDescription("Total number of tool calls"),
		metric.WithUnit("{call}"),
	)

	callDuration, _ := meter.Float64Histogram(
		"rpc.server.call.duration",
		metric.WithDescription("Duration of tool calls"),
		metric.WithUnit("ms"),
	)

	faultCounter, _ := meter.Int64Counter(
		"rpc.server.faults",
		metric.WithDescription("Total number of failed tool calls"),
		metric.WithUnit("{fault}"),
	)

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
			if cfg.skipTools[call.Tool] {
				return next(ctx, call)
			}

			spanName := "rpc." + call.Tool
			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("rpc.tool", call.Tool),
					attribute.String("service.name", cfg.serviceName),
				),
			)
			defer span.End()

			if traceID := TraceIDFromContext(ctx); traceID != "" {
				span.SetAttributes(attribute.String("rpc.trace_id", traceID))
			}

			startTime := time.Now()

			attrs := []attribute.KeyValue{
				attribute.String("rpc.tool", call.Tool),
				attribute.String("service.name", cfg.serviceName),
			}

			callCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

			result, err := next(ctx, call)

			duration := float64(time.Since(startTime).Milliseconds())
			callDuration.Record(ctx, duration, metric.WithAttributes(attrs...))

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())

				var fault *domain.Fault
				if errors.As(err, &fault) {
					span.SetAttributes(attribute.String("rpc.fault_kind", fault.Kind.String()))
					faultCounter.Add(ctx, 1, metric.WithAttributes(
						append(attrs, attribute.String("rpc.fault_kind", fault.Kind.String()))...,
					))
				} else {
					faultCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
				}
			} else {
				span.SetStatus(codes.Ok, "")
			}

			return result, err
		}
	}
}

// SpanFromContext returns the current span from context.
// Returns a no-op span if no span is present.
func SpanFromContext(ctx context.Context) trace.Span {
	return trace.SpanFromContext(ctx)
}

// AddSpanEvent adds an event to the current span.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
