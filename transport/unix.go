package transport

import (
	"context"
	"net"
)

// DialUnix connects to a Unix domain socket and returns a transport over
// the connection.
func DialUnix(ctx context.Context, path string, opts ...StreamOption) (*Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}
	return NewConn(conn, opts...), nil
}

// ListenUnix starts a listener on a Unix domain socket. The socket file
// is removed when the listener is closed.
func ListenUnix(path string, opts ...StreamOption) (*Listener, error) {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return NewListener(ln, opts...), nil
}
