// Package toolwire exposes a registry of named tools over JSON-RPC 2.0.
//
// A Server binds a tool registry to one or more transports. The smallest
// useful program registers a tool and serves stdio:
//
//	reg := registry.New()
//	reg.Tool("greet").
//	    Description("Greets by name").
//	    Handler(func(in GreetInput) (string, error) {
//	        return "Hello, " + in.Name, nil
//	    })
//
//	srv := toolwire.NewServer(reg)
//	if err := srv.ServeStdio(ctx); err != nil {
//	    log.Fatal(err)
//	}
package toolwire

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/toolwire/toolwire/dispatch"
	"github.com/toolwire/toolwire/domain"
	"github.com/toolwire/toolwire/middleware"
	"github.com/toolwire/toolwire/registry"
	"github.com/toolwire/toolwire/transport"
)

// Re-export core types for convenience

// Registry maps tool names to executable capabilities.
type Registry = registry.Registry

// Tool is an executable capability.
type Tool = registry.Tool

// ToolFunc is an adapter to allow ordinary functions as tools.
type ToolFunc = registry.ToolFunc

// Fault is the typed failure produced by tools and the codec.
type Fault = domain.Fault

// Logger is the structured logging interface used across the module.
type Logger = middleware.Logger

// Middleware wraps tool execution with additional behavior.
type Middleware = middleware.Middleware

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return registry.New()
}

// Server binds a tool registry to transports.
type Server struct {
	registry *registry.Registry

	logger      middleware.Logger
	middlewares []middleware.Middleware
	concurrency int
	shutdown    *transport.ShutdownManager
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the structured logger for the server and its dispatch
// loops.
func WithLogger(l middleware.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithMiddleware wraps every tool execution with the given middleware, in
// order.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mws...)
	}
}

// WithConcurrency allows up to n entries of a batch payload to execute in
// parallel.
func WithConcurrency(n int) Option {
	return func(s *Server) {
		s.concurrency = n
	}
}

// WithGracefulShutdown enables draining: when a network server's context
// is canceled, in-flight payloads get until the configured timeout to
// finish before connections are torn down.
func WithGracefulShutdown(cfg transport.ShutdownConfig) Option {
	return func(s *Server) {
		s.shutdown = transport.NewShutdownManager(cfg)
	}
}

// NewServer creates a server for the given registry.
func NewServer(reg *registry.Registry, opts ...Option) *Server {
	s := &Server{
		registry:    reg,
		logger:      middleware.NopLogger{},
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// ServeTransport runs the dispatch loop over a single established
// transport until it closes or ctx is canceled.
func (s *Server) ServeTransport(ctx context.Context, t transport.Transport) error {
	opts := []dispatch.Option{
		dispatch.WithLogger(s.logger),
		dispatch.WithMiddleware(s.middlewares...),
		dispatch.WithConcurrency(s.concurrency),
	}
	if s.shutdown != nil {
		opts = append(opts, dispatch.WithShutdownManager(s.shutdown))
	}

	return dispatch.New(t, s.registry, opts...).Run(ctx)
}

// ServeStdio serves a single peer over stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context, opts ...transport.StdioOption) error {
	t := transport.NewStdio(opts...)
	defer t.Close()
	return s.ServeTransport(ctx, t)
}

// Serve accepts connections from l, running one dispatch loop per
// connection, until ctx is canceled. On cancellation the listener closes
// immediately; established connections drain per the shutdown
// configuration before being torn down.
func (s *Server) Serve(ctx context.Context, l *transport.Listener) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	var wg sync.WaitGroup
	for {
		conn, err := l.Accept()
		if err != nil {
			if errors.Is(err, transport.ErrClosed) || ctx.Err() != nil {
				break
			}
			return err
		}

		s.logger.Debug("connection accepted", middleware.F("remote", conn.Addr()))

		wg.Add(1)
		go func(conn *transport.Conn) {
			defer wg.Done()
			defer conn.Close()

			if err := s.ServeTransport(ctx, conn); err != nil && !errors.Is(err, ctx.Err()) {
				s.logger.Error("connection failed",
					middleware.F("remote", conn.Addr()),
					middleware.F("error", err.Error()),
				)
			}
		}(conn)
	}

	if s.shutdown != nil {
		_ = s.shutdown.Shutdown(context.Background())
	}
	wg.Wait()
	return nil
}

// WebSocketHandler returns an http.Handler that upgrades each request to
// a WebSocket connection and runs a dispatch loop over it.
func (s *Server) WebSocketHandler(opts ...transport.WebSocketOption) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := transport.Upgrade(w, r, opts...)
		if err != nil {
			s.logger.Warn("websocket upgrade failed", middleware.F("error", err.Error()))
			return
		}
		defer ws.Close()

		if err := s.ServeTransport(r.Context(), ws); err != nil {
			s.logger.Error("websocket connection failed",
				middleware.F("remote", ws.Addr()),
				middleware.F("error", err.Error()),
			)
		}
	})
}

// ServeWebSocket runs an HTTP server on addr upgrading every request to a
// WebSocket dispatch loop, until ctx is canceled.
func (s *Server) ServeWebSocket(ctx context.Context, addr string, opts ...transport.WebSocketOption) error {
	httpServer := &http.Server{
		Addr:    addr,
		Handler: s.WebSocketHandler(opts...),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		if s.shutdown != nil {
			_ = s.shutdown.Shutdown(context.Background())
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
