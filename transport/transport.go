package transport

import (
	"context"
	"errors"
)

// ErrClosed is returned by Receive and Send once the transport has been
// closed, either locally via Close or because the peer ended the stream.
var ErrClosed = errors.New("transport: closed")

// ErrFrameTooLarge is returned by Receive when an incoming frame exceeds
// the transport's configured frame size limit.
var ErrFrameTooLarge = errors.New("transport: frame too large")

// Transport carries opaque payload frames between a peer and the dispatch
// loop. Implementations must support concurrent Send calls; Receive is
// called from a single goroutine.
type Transport interface {
	// Receive blocks until the next inbound frame arrives, ctx is
	// canceled, or the stream ends. It returns ErrClosed on orderly
	// end of stream.
	Receive(ctx context.Context) ([]byte, error)

	// Send writes one outbound frame.
	Send(ctx context.Context, frame []byte) error

	// Close tears down the transport. Blocked Receive and Send calls
	// return ErrClosed. Close is idempotent.
	Close() error
}

// Addresser is implemented by transports bound to a network address.
type Addresser interface {
	Addr() string
}
