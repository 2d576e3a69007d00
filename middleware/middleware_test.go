package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/toolwire/toolwire/domain"
)

func okHandler(result string) HandlerFunc {
	return func(context.Context, *domain.Request) (json.RawMessage, error) {
		return json.RawMessage(result), nil
	}
}

func testCall() *domain.Request {
	return &domain.Request{ID: `"1"`, Tool: "echo", Params: json.RawMessage(`{}`)}
}

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
				order = append(order, name)
				return next(ctx, call)
			}
		}
	}

	handler := Chain(mark("a"), mark("b"), mark("c"))(okHandler(`"ok"`))
	if _, err := handler(context.Background(), testCall()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("execution order = %v, want %v", order, want)
		}
	}
}

func TestMiddlewareChain_Fluent(t *testing.T) {
	called := false
	m := func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
			called = true
			return next(ctx, call)
		}
	}

	handler := Use(m).Append(m).Then(okHandler(`"ok"`))
	if _, err := handler(context.Background(), testCall()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("middleware not invoked")
	}
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, level+": "+msg)
}

func (l *recordingLogger) Info(msg string, _ ...Field)  { l.record("info", msg) }
func (l *recordingLogger) Error(msg string, _ ...Field) { l.record("error", msg) }
func (l *recordingLogger) Debug(msg string, _ ...Field) { l.record("debug", msg) }
func (l *recordingLogger) Warn(msg string, _ ...Field)  { l.record("warn", msg) }

func TestLogging(t *testing.T) {
	t.Run("success logs at info", func(t *testing.T) {
		logger := &recordingLogger{}
		handler := Logging(logger)(okHandler(`"ok"`))

		if _, err := handler(context.Background(), testCall()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(logger.entries) != 1 || logger.entries[0] != "info: call completed" {
			t.Errorf("entries = %v", logger.entries)
		}
	})

	t.Run("failure logs at error", func(t *testing.T) {
		logger := &recordingLogger{}
		handler := Logging(logger)(func(context.Context, *domain.Request) (json.RawMessage, error) {
			return nil, errors.New("boom")
		})

		_, _ = handler(context.Background(), testCall())
		if len(logger.entries) != 1 || logger.entries[0] != "error: call failed" {
			t.Errorf("entries = %v", logger.entries)
		}
	})
}

func TestTraceID(t *testing.T) {
	t.Run("injects id", func(t *testing.T) {
		var got string
		handler := TraceID()(func(ctx context.Context, _ *domain.Request) (json.RawMessage, error) {
			got = TraceIDFromContext(ctx)
			return nil, nil
		})

		_, _ = handler(context.Background(), testCall())
		if got == "" {
			t.Error("trace ID not injected")
		}
	})

	t.Run("preserves existing id", func(t *testing.T) {
		var got string
		handler := TraceID()(func(ctx context.Context, _ *domain.Request) (json.RawMessage, error) {
			got = TraceIDFromContext(ctx)
			return nil, nil
		})

		ctx := ContextWithTraceID(context.Background(), "existing")
		_, _ = handler(ctx, testCall())
		if got != "existing" {
			t.Errorf("got %q, want existing", got)
		}
	})

	t.Run("custom generator", func(t *testing.T) {
		var got string
		handler := TraceIDWithGenerator(func() string { return "fixed" })(
			func(ctx context.Context, _ *domain.Request) (json.RawMessage, error) {
				got = TraceIDFromContext(ctx)
				return nil, nil
			})

		_, _ = handler(context.Background(), testCall())
		if got != "fixed" {
			t.Errorf("got %q, want fixed", got)
		}
	})
}

func TestRecover(t *testing.T) {
	handler := Recover()(func(context.Context, *domain.Request) (json.RawMessage, error) {
		panic("something broke")
	})

	_, err := handler(context.Background(), testCall())
	if !errors.Is(err, domain.New(domain.KindInternal, "")) {
		t.Fatalf("got %v, want internal fault", err)
	}

	var fault *domain.Fault
	if !errors.As(err, &fault) || fault.Message != "panic: something broke" {
		t.Errorf("fault = %v", err)
	}
}

func TestTimeout(t *testing.T) {
	handler := Timeout(20 * time.Millisecond)(func(ctx context.Context, _ *domain.Request) (json.RawMessage, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return json.RawMessage(`"late"`), nil
		}
	})

	_, err := handler(context.Background(), testCall())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("got %v, want context.DeadlineExceeded", err)
	}
}

func TestRateLimit(t *testing.T) {
	handler := RateLimit(1, 1)(okHandler(`"ok"`))
	ctx := context.Background()

	if _, err := handler(ctx, testCall()); err != nil {
		t.Fatalf("first call must pass: %v", err)
	}

	_, err := handler(ctx, testCall())
	if !errors.Is(err, domain.New(domain.KindExecution, "")) {
		t.Errorf("got %v, want execution fault when limit exceeded", err)
	}
}

func TestSizeLimit(t *testing.T) {
	logger := &recordingLogger{}
	handler := SizeLimit(8, WithSizeLimitLogger(logger))(okHandler(`"ok"`))

	small := testCall()
	if _, err := handler(context.Background(), small); err != nil {
		t.Fatalf("small params must pass: %v", err)
	}

	big := testCall()
	big.Params = json.RawMessage(`{"data":"0123456789"}`)
	_, err := handler(context.Background(), big)
	if !errors.Is(err, domain.New(domain.KindInvalidParams, "")) {
		t.Errorf("got %v, want invalid params fault", err)
	}
	if len(logger.entries) != 1 {
		t.Errorf("expected one warn entry, got %v", logger.entries)
	}
}
