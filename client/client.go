// Package client provides a JSON-RPC client for calling tools over any
// transport.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toolwire/toolwire/codec"
	"github.com/toolwire/toolwire/protocol"
	"github.com/toolwire/toolwire/transport"
)

// ErrClientClosed is returned by Call and Notify after the client or its
// transport has been closed.
var ErrClientClosed = errors.New("client: closed")

// Client issues tool calls and correlates responses by id. It is safe for
// concurrent use; responses may arrive in any order.
type Client struct {
	transport transport.Transport
	opts      clientOptions

	mu      sync.Mutex
	pending map[string]chan *protocol.Response

	done      chan struct{}
	closeOnce sync.Once
	readErr   error // set before done is closed
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout time.Duration
	genID   func() string
}

// WithTimeout sets the default per-call timeout. Zero disables it; a
// deadline already on the context always wins.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithIDGenerator sets a custom call id generator. The default generates
// UUIDs.
func WithIDGenerator(fn func() string) Option {
	return func(o *clientOptions) {
		o.genID = fn
	}
}

// New creates a client over t and starts reading responses.
func New(t transport.Transport, opts ...Option) *Client {
	options := clientOptions{
		timeout: 30 * time.Second,
		genID:   uuid.NewString,
	}

	for _, opt := range opts {
		opt(&options)
	}

	c := &Client{
		transport: t,
		opts:      options,
		pending:   make(map[string]chan *protocol.Response),
		done:      make(chan struct{}),
	}

	go c.readLoop()

	return c
}

// Call invokes a tool and waits for its result. Params may be any
// JSON-marshalable value; nil sends null params. Tool failures come back
// as domain faults.
func (c *Client) Call(ctx context.Context, tool string, params any) (json.RawMessage, error) {
	id := protocol.NewStringID(c.opts.genID())

	data, err := c.encodeRequest(id, tool, params)
	if err != nil {
		return nil, err
	}

	ch := make(chan *protocol.Response, 1)
	key := id.Key()

	c.mu.Lock()
	c.pending[key] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, key)
		c.mu.Unlock()
	}()

	if c.opts.timeout > 0 {
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.opts.timeout)
			defer cancel()
		}
	}

	if err := c.transport.Send(ctx, data); err != nil {
		if errors.Is(err, transport.ErrClosed) {
			return nil, ErrClientClosed
		}
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		if c.readErr != nil {
			return nil, c.readErr
		}
		return nil, ErrClientClosed
	case resp := <-ch:
		if resp.Error != nil {
			return nil, codec.FaultFromWire(resp.Error)
		}
		return resp.Result, nil
	}
}

// Notify sends a fire-and-forget call. No response will ever arrive, so
// Notify returns as soon as the payload is written.
func (c *Client) Notify(ctx context.Context, tool string, params any) error {
	data, err := c.encodeRequest(protocol.ID{}, tool, params)
	if err != nil {
		return err
	}

	if err := c.transport.Send(ctx, data); err != nil {
		if errors.Is(err, transport.ErrClosed) {
			return ErrClientClosed
		}
		return err
	}
	return nil
}

// Close tears down the client and its transport. Pending calls fail with
// ErrClientClosed.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.transport.Close()
	})
	return err
}

func (c *Client) encodeRequest(id protocol.ID, tool string, params any) ([]byte, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		raw = data
	}

	req := protocol.Request{
		JSONRPC: protocol.Version,
		ID:      id,
		Method:  tool,
		Params:  raw,
	}
	return json.Marshal(&req)
}

func (c *Client) readLoop() {
	ctx := context.Background()
	for {
		frame, err := c.transport.Receive(ctx)
		if err != nil {
			if !errors.Is(err, transport.ErrClosed) {
				c.readErr = err
			}
			c.closeOnce.Do(func() {
				close(c.done)
				_ = c.transport.Close()
			})
			return
		}
		c.deliver(frame)
	}
}

// deliver routes one inbound frame to the calls waiting on it. Batch
// responses are unpacked and routed element by element.
func (c *Client) deliver(frame []byte) {
	trimmed := bytes.TrimLeft(frame, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var resps []*protocol.Response
		if err := json.Unmarshal(frame, &resps); err != nil {
			return
		}
		for _, resp := range resps {
			c.route(resp)
		}
		return
	}

	var resp protocol.Response
	if err := json.Unmarshal(frame, &resp); err != nil {
		return
	}
	c.route(&resp)
}

func (c *Client) route(resp *protocol.Response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.ID.Key()]
	c.mu.Unlock()

	if !ok {
		// Late or unsolicited response; nothing is waiting on it.
		return
	}

	select {
	case ch <- resp:
	default:
	}
}
