package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket carries one payload per WebSocket text message. No extra
// framing is applied.
type WebSocket struct {
	conn *websocket.Conn

	writeTimeout time.Duration

	frames  chan []byte
	readErr error // set before frames is closed

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWriteTimeout bounds how long a single Send may block on the socket.
func WithWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithReadLimit sets the maximum inbound message size in bytes.
func WithReadLimit(n int64) WebSocketOption {
	return func(ws *WebSocket) {
		ws.conn.SetReadLimit(n)
	}
}

// NewWebSocket wraps an established WebSocket connection.
func NewWebSocket(conn *websocket.Conn, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		conn:         conn,
		writeTimeout: 10 * time.Second,
		frames:       make(chan []byte),
		done:         make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ws)
	}

	go ws.readLoop()

	return ws
}

// DialWebSocket connects to a WebSocket endpoint, e.g. "ws://host/rpc".
func DialWebSocket(ctx context.Context, url string, opts ...WebSocketOption) (*WebSocket, error) {
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn, opts...), nil
}

// Upgrade upgrades an HTTP request to a WebSocket transport. Origin checks
// are the caller's concern; the upgrader accepts all origins.
func Upgrade(w http.ResponseWriter, r *http.Request, opts ...WebSocketOption) (*WebSocket, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(*http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return NewWebSocket(conn, opts...), nil
}

func (ws *WebSocket) readLoop() {
	for {
		_, message, err := ws.conn.ReadMessage()
		if err != nil {
			// Close errors, including normal peer closure, surface as
			// ErrClosed through Receive.
			if !websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure, websocket.CloseGoingAway) && !ws.closed() {
				ws.readErr = err
			}
			close(ws.frames)
			return
		}

		select {
		case ws.frames <- message:
		case <-ws.done:
			return
		}
	}
}

// Receive returns the next inbound message.
func (ws *WebSocket) Receive(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-ws.done:
		return nil, ErrClosed
	case frame, ok := <-ws.frames:
		if !ok {
			if ws.readErr != nil && !ws.closed() {
				return nil, ws.readErr
			}
			return nil, ErrClosed
		}
		return frame, nil
	}
}

// Send writes one outbound message.
func (ws *WebSocket) Send(ctx context.Context, frame []byte) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ws.done:
		return ErrClosed
	default:
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	if ws.writeTimeout > 0 {
		_ = ws.conn.SetWriteDeadline(time.Now().Add(ws.writeTimeout))
	}
	return ws.conn.WriteMessage(websocket.TextMessage, frame)
}

// Close sends a close frame to the peer and tears down the connection.
func (ws *WebSocket) Close() error {
	var err error
	ws.closeOnce.Do(func() {
		close(ws.done)

		ws.writeMu.Lock()
		_ = ws.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.writeMu.Unlock()

		err = ws.conn.Close()
	})
	return err
}

// Addr returns the remote address of the connection.
func (ws *WebSocket) Addr() string {
	return ws.conn.RemoteAddr().String()
}

func (ws *WebSocket) closed() bool {
	select {
	case <-ws.done:
		return true
	default:
		return false
	}
}
