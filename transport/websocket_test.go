package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrade(w, r)
		if err != nil {
			return
		}
		defer ws.Close()

		ctx := context.Background()
		for {
			frame, err := ws.Receive(ctx)
			if err != nil {
				return
			}
			if err := ws.Send(ctx, frame); err != nil {
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketRoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, err := DialWebSocket(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer ws.Close()

	if err := ws.Send(ctx, []byte(`{"ping":1}`)); err != nil {
		t.Fatalf("send: %v", err)
	}

	frame, err := ws.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if string(frame) != `{"ping":1}` {
		t.Errorf("got %s, want echo of sent frame", frame)
	}
}

func TestWebSocketCloseUnblocksReceive(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ws, err := DialWebSocket(ctx, wsURL(srv))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := ws.Receive(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	_ = ws.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("got %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive did not unblock after Close")
	}

	if err := ws.Send(context.Background(), []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("got %v, want ErrClosed", err)
	}
}

func TestWebSocketDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if _, err := DialWebSocket(ctx, "ws://127.0.0.1:1/nope"); err == nil {
		t.Error("expected error, got nil")
	}
}
