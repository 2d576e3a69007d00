package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/toolwire/toolwire/transport"
)

func TestScriptTransport(t *testing.T) {
	st := NewScriptTransport(`{"a":1}`, `{"b":2}`)
	ctx := context.Background()

	frame, err := st.Receive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(frame) != `{"a":1}` {
		t.Errorf("got %s", frame)
	}

	if _, err := st.Receive(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := st.Receive(ctx); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("got %v, want ErrClosed after script is exhausted", err)
	}

	if err := st.Send(ctx, []byte(`{"r":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent := st.Sent()
	if len(sent) != 1 || sent[0] != `{"r":1}` {
		t.Errorf("Sent() = %v", sent)
	}
}

func TestScriptTransport_Close(t *testing.T) {
	st := NewScriptTransport(`{"a":1}`)
	_ = st.Close()

	if _, err := st.Receive(context.Background()); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
	if err := st.Send(context.Background(), []byte("x")); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestPipe(t *testing.T) {
	a, b := Pipe()
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	go func() {
		_ = a.Send(ctx, []byte(`{"x":1}`))
	}()

	frame, err := b.Receive(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(frame) != `{"x":1}` {
		t.Errorf("got %s", frame)
	}
}

func TestPipe_CloseAffectsBothEnds(t *testing.T) {
	a, b := Pipe()
	_ = a.Close()

	if _, err := b.Receive(context.Background()); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("got %v, want ErrClosed on peer after close", err)
	}
	if err := a.Send(context.Background(), []byte("x")); !errors.Is(err, transport.ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}
