package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/toolwire/toolwire/middleware"
	"github.com/toolwire/toolwire/registry"
	"github.com/toolwire/toolwire/testutil"
	"github.com/toolwire/toolwire/transport"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()

	if err := reg.Register("echo", registry.ToolFunc(
		func(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
			return params, nil
		})); err != nil {
		t.Fatal(err)
	}

	if err := reg.Register("fail", registry.ToolFunc(
		func(context.Context, json.RawMessage) (json.RawMessage, error) {
			return nil, errors.New("it broke")
		})); err != nil {
		t.Fatal(err)
	}

	return reg
}

func run(t *testing.T, reg *registry.Registry, st *testutil.ScriptTransport, opts ...Option) []string {
	t.Helper()
	p := New(st, reg, opts...)
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return st.Sent()
}

func TestProcessor_SingleRequest(t *testing.T) {
	st := testutil.NewScriptTransport(`{"jsonrpc":"2.0","id":1,"method":"echo","params":{"x":1}}`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	want := `{"jsonrpc":"2.0","result":{"x":1},"id":1}`
	if sent[0] != want {
		t.Errorf("got %s, want %s", sent[0], want)
	}
}

func TestProcessor_StringIDPreserved(t *testing.T) {
	st := testutil.NewScriptTransport(`{"jsonrpc":"2.0","id":"1","method":"echo","params":null}`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.Contains(sent[0], `"id":"1"`) {
		t.Errorf("string id not preserved: %s", sent[0])
	}
}

func TestProcessor_NotificationProducesNoOutput(t *testing.T) {
	st := testutil.NewScriptTransport(`{"jsonrpc":"2.0","method":"echo","params":{"x":1}}`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 0 {
		t.Errorf("sent %v, want nothing for a notification", sent)
	}
}

func TestProcessor_UnknownTool(t *testing.T) {
	st := testutil.NewScriptTransport(`{"jsonrpc":"2.0","id":1,"method":"nope"}`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.Contains(sent[0], `"code":-32601`) {
		t.Errorf("want method not found error, got %s", sent[0])
	}
	if !strings.Contains(sent[0], `"Method not found"`) {
		t.Errorf("want fixed message, got %s", sent[0])
	}
}

func TestProcessor_ToolFailure(t *testing.T) {
	st := testutil.NewScriptTransport(`{"jsonrpc":"2.0","id":1,"method":"fail"}`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.Contains(sent[0], `"code":-32000`) {
		t.Errorf("want server error, got %s", sent[0])
	}
	if !strings.Contains(sent[0], "it broke") {
		t.Errorf("tool error must ride in data, got %s", sent[0])
	}
}

func TestProcessor_ParseError(t *testing.T) {
	st := testutil.NewScriptTransport(`{not json`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.Contains(sent[0], `"code":-32700`) {
		t.Errorf("want parse error, got %s", sent[0])
	}
	if !strings.Contains(sent[0], `"id":null`) {
		t.Errorf("parse error must carry the null id, got %s", sent[0])
	}
}

func TestProcessor_EmptyBatch(t *testing.T) {
	st := testutil.NewScriptTransport(`[]`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.Contains(sent[0], `"code":-32600`) {
		t.Errorf("want invalid request, got %s", sent[0])
	}
	if strings.HasPrefix(sent[0], "[") {
		t.Errorf("empty batch error must be a single object, got %s", sent[0])
	}
}

func TestProcessor_Batch(t *testing.T) {
	st := testutil.NewScriptTransport(
		`[{"jsonrpc":"2.0","id":1,"method":"echo","params":1},` +
			`{"jsonrpc":"2.0","method":"echo","params":2},` +
			`"garbage",` +
			`{"jsonrpc":"2.0","id":4,"method":"nope"}]`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}

	var resps []struct {
		ID     json.RawMessage `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code int `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(sent[0]), &resps); err != nil {
		t.Fatalf("response is not an array: %v", err)
	}
	// the notification contributes no response
	if len(resps) != 3 {
		t.Fatalf("got %d responses, want 3", len(resps))
	}

	if string(resps[0].ID) != "1" || string(resps[0].Result) != "1" {
		t.Errorf("first response = %+v", resps[0])
	}
	if resps[1].Error == nil || resps[1].Error.Code != -32600 || string(resps[1].ID) != "null" {
		t.Errorf("garbage entry must fail with invalid request under null id: %+v", resps[1])
	}
	if resps[2].Error == nil || resps[2].Error.Code != -32601 || string(resps[2].ID) != "4" {
		t.Errorf("third response = %+v", resps[2])
	}
}

func TestProcessor_SingleElementBatchKeepsArrayShape(t *testing.T) {
	st := testutil.NewScriptTransport(`[{"jsonrpc":"2.0","id":1,"method":"echo","params":1}]`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.HasPrefix(sent[0], "[") {
		t.Errorf("batch response must stay an array, got %s", sent[0])
	}
}

func TestProcessor_BatchOfNotificationsProducesNoOutput(t *testing.T) {
	st := testutil.NewScriptTransport(
		`[{"jsonrpc":"2.0","method":"echo"},{"jsonrpc":"2.0","method":"echo"}]`)
	sent := run(t, testRegistry(t), st)

	if len(sent) != 0 {
		t.Errorf("sent %v, want nothing", sent)
	}
}

func TestProcessor_ConcurrencyPreservesOrder(t *testing.T) {
	reg := registry.New()
	_ = reg.Register("slowEcho", registry.ToolFunc(
		func(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
			// first entry sleeps so a racy implementation would flip order
			if string(params) == "1" {
				time.Sleep(50 * time.Millisecond)
			}
			return params, nil
		}))

	st := testutil.NewScriptTransport(
		`[{"jsonrpc":"2.0","id":1,"method":"slowEcho","params":1},` +
			`{"jsonrpc":"2.0","id":2,"method":"slowEcho","params":2}]`)
	sent := run(t, reg, st, WithConcurrency(4))

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	want := `[{"jsonrpc":"2.0","result":1,"id":1},{"jsonrpc":"2.0","result":2,"id":2}]`
	if sent[0] != want {
		t.Errorf("got %s, want positional order %s", sent[0], want)
	}
}

func TestProcessor_MiddlewareWraps(t *testing.T) {
	reg := registry.New()
	_ = reg.Register("panics", registry.ToolFunc(
		func(context.Context, json.RawMessage) (json.RawMessage, error) {
			panic("boom")
		}))

	st := testutil.NewScriptTransport(`{"jsonrpc":"2.0","id":1,"method":"panics"}`)
	sent := run(t, reg, st, WithMiddleware(middleware.Recover()))

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.Contains(sent[0], `"code":-32603`) {
		t.Errorf("want internal error from recovered panic, got %s", sent[0])
	}
}

func TestProcessor_RunStopsOnContextCancel(t *testing.T) {
	a, b := testutil.Pipe()
	defer a.Close()

	p := New(a, testRegistry(t))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("got %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop on cancel")
	}
	_ = b
}

func TestProcessor_ShedsWhileDraining(t *testing.T) {
	sm := transport.NewShutdownManager(transport.ShutdownConfig{Timeout: time.Second})
	if err := sm.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	st := testutil.NewScriptTransport(`{"jsonrpc":"2.0","id":1,"method":"echo","params":1}`)
	sent := run(t, testRegistry(t), st, WithShutdownManager(sm))

	if len(sent) != 1 {
		t.Fatalf("sent %d frames, want 1", len(sent))
	}
	if !strings.Contains(sent[0], `"code":-32000`) || !strings.Contains(sent[0], "shutting down") {
		t.Errorf("want shedding server error, got %s", sent[0])
	}
}
