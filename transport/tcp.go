package transport

import (
	"context"
	"errors"
	"net"
)

// Conn is a Transport over a single network connection, line-framed.
type Conn struct {
	*Stream
	conn net.Conn
}

// NewConn wraps an established network connection.
func NewConn(conn net.Conn, opts ...StreamOption) *Conn {
	opts = append(opts, WithCloser(conn))
	return &Conn{
		Stream: NewStream(conn, conn, opts...),
		conn:   conn,
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() string {
	return c.conn.RemoteAddr().String()
}

// DialTCP connects to a TCP endpoint and returns a transport over the
// connection.
func DialTCP(ctx context.Context, addr string, opts ...StreamOption) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, opts...), nil
}

// Listener accepts inbound connections and wraps each as a Conn.
type Listener struct {
	ln   net.Listener
	opts []StreamOption
}

// ListenTCP starts a TCP listener on addr.
func ListenTCP(addr string, opts ...StreamOption) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewListener(ln, opts...), nil
}

// NewListener wraps an existing network listener.
func NewListener(ln net.Listener, opts ...StreamOption) *Listener {
	return &Listener{ln: ln, opts: opts}
}

// Accept blocks until the next connection arrives. It returns ErrClosed
// after the listener has been closed.
func (l *Listener) Accept() (*Conn, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		if errors.Is(err, net.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, err
	}
	return NewConn(conn, l.opts...), nil
}

// Close stops the listener. Established connections are not affected.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// Addr returns the listener's bound address.
func (l *Listener) Addr() string {
	return l.ln.Addr().String()
}
