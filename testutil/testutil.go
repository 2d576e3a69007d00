// Package testutil provides in-memory transports for exercising the
// dispatch loop and clients without sockets or subprocesses.
package testutil

import (
	"context"
	"sync"

	"github.com/toolwire/toolwire/transport"
)

// ScriptTransport replays a fixed sequence of inbound frames and records
// everything sent back. Receive returns transport.ErrClosed once the
// script is exhausted, ending the dispatch loop the same way a
// disconnecting peer would.
type ScriptTransport struct {
	mu      sync.Mutex
	inbound [][]byte
	sent    [][]byte
	closed  bool
}

// NewScriptTransport creates a transport that will deliver the given
// frames in order.
func NewScriptTransport(frames ...string) *ScriptTransport {
	st := &ScriptTransport{}
	for _, f := range frames {
		st.inbound = append(st.inbound, []byte(f))
	}
	return st
}

// Receive returns the next scripted frame.
func (st *ScriptTransport) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed || len(st.inbound) == 0 {
		return nil, transport.ErrClosed
	}
	frame := st.inbound[0]
	st.inbound = st.inbound[1:]
	return frame, nil
}

// Send records an outbound frame.
func (st *ScriptTransport) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if st.closed {
		return transport.ErrClosed
	}
	cp := make([]byte, len(frame))
	copy(cp, frame)
	st.sent = append(st.sent, cp)
	return nil
}

// Close ends the script early.
func (st *ScriptTransport) Close() error {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.closed = true
	return nil
}

// Sent returns the frames written so far, as strings.
func (st *ScriptTransport) Sent() []string {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]string, len(st.sent))
	for i, f := range st.sent {
		out[i] = string(f)
	}
	return out
}

// Pipe returns two connected in-memory transports: frames sent on one
// side arrive at the other. Closing either side closes both.
func Pipe() (*PipeTransport, *PipeTransport) {
	core := &pipeCore{
		aToB: make(chan []byte),
		bToA: make(chan []byte),
		done: make(chan struct{}),
	}
	a := &PipeTransport{core: core, recv: core.bToA, send: core.aToB}
	b := &PipeTransport{core: core, recv: core.aToB, send: core.bToA}
	return a, b
}

type pipeCore struct {
	aToB chan []byte
	bToA chan []byte
	done chan struct{}
	once sync.Once
}

// PipeTransport is one end of an in-memory transport pair.
type PipeTransport struct {
	core *pipeCore
	recv <-chan []byte
	send chan<- []byte
}

// Receive blocks until the peer sends a frame.
func (p *PipeTransport) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-p.core.done:
		return nil, transport.ErrClosed
	case frame := <-p.recv:
		return frame, nil
	}
}

// Send delivers a frame to the peer, blocking until it is received.
func (p *PipeTransport) Send(ctx context.Context, frame []byte) error {
	cp := make([]byte, len(frame))
	copy(cp, frame)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-p.core.done:
		return transport.ErrClosed
	case p.send <- cp:
		return nil
	}
}

// Close tears down both ends of the pipe.
func (p *PipeTransport) Close() error {
	p.core.once.Do(func() {
		close(p.core.done)
	})
	return nil
}
