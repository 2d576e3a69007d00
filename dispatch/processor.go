package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/toolwire/toolwire/codec"
	"github.com/toolwire/toolwire/domain"
	"github.com/toolwire/toolwire/middleware"
	"github.com/toolwire/toolwire/protocol"
	"github.com/toolwire/toolwire/registry"
	"github.com/toolwire/toolwire/transport"
)

// Processor drives the dispatch loop for a single transport.
type Processor struct {
	transport transport.Transport
	registry  *registry.Registry

	logger      middleware.Logger
	handler     middleware.HandlerFunc
	middlewares []middleware.Middleware
	concurrency int
	shutdown    *transport.ShutdownManager
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger for dispatch events.
func WithLogger(l middleware.Logger) Option {
	return func(p *Processor) {
		p.logger = l
	}
}

// WithMiddleware appends middleware wrapped around every tool execution,
// in the order given.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(p *Processor) {
		p.middlewares = append(p.middlewares, mws...)
	}
}

// WithConcurrency allows up to n entries of a batch to execute in
// parallel. The default is 1: entries execute sequentially in batch
// order. Response order is positional either way.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithShutdownManager tracks each payload as in-flight work, and sheds
// new payloads once draining has started.
func WithShutdownManager(sm *transport.ShutdownManager) Option {
	return func(p *Processor) {
		p.shutdown = sm
	}
}

// New creates a Processor reading from t and executing tools from reg.
func New(t transport.Transport, reg *registry.Registry, opts ...Option) *Processor {
	p := &Processor{
		transport:   t,
		registry:    reg,
		logger:      middleware.NopLogger{},
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(p)
	}

	p.handler = middleware.Chain(p.middlewares...)(p.execute)

	return p
}

// Run processes payloads until the transport closes or ctx is canceled.
// Orderly end of stream returns nil; transport failures are reported as
// transport faults.
func (p *Processor) Run(ctx context.Context) error {
	for {
		frame, err := p.transport.Receive(ctx)
		if err != nil {
			switch {
			case errors.Is(err, transport.ErrClosed):
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				return err
			}
			p.logger.Error("receive failed", middleware.F("error", err.Error()))
			return domain.NewTransport(err)
		}

		out, ok, err := p.dispatch(ctx, frame)
		if err != nil {
			p.logger.Error("encode failed", middleware.F("error", err.Error()))
			return domain.NewInternal(err.Error()).WithCause(err)
		}
		if !ok {
			continue
		}

		if err := p.transport.Send(ctx, out); err != nil {
			if errors.Is(err, transport.ErrClosed) {
				return nil
			}
			p.logger.Error("send failed", middleware.F("error", err.Error()))
			return domain.NewTransport(err)
		}
	}
}

// dispatch routes one frame through shutdown tracking.
func (p *Processor) dispatch(ctx context.Context, frame []byte) ([]byte, bool, error) {
	if p.shutdown == nil {
		return p.Handle(ctx, frame)
	}

	if !p.shutdown.Track() {
		return p.reject(frame)
	}
	defer p.shutdown.Complete()

	return p.Handle(ctx, frame)
}

// Handle processes one raw payload and returns the serialized response.
// The boolean reports whether anything must be written back; payloads
// consisting only of notifications produce no output.
func (p *Processor) Handle(ctx context.Context, data []byte) ([]byte, bool, error) {
	payload, fault := codec.Decode(data)
	if fault != nil {
		p.logger.Warn("payload rejected", middleware.F("error", fault.Error()))
		resp := codec.FaultResponse(protocol.NullID(), fault)
		return codec.Marshal(false, []*protocol.Response{resp})
	}

	var resps []*protocol.Response
	if p.concurrency > 1 && len(payload.Entries) > 1 {
		resps = p.processParallel(ctx, payload.Entries)
	} else {
		resps = make([]*protocol.Response, 0, len(payload.Entries))
		for _, entry := range payload.Entries {
			if resp := p.processEntry(ctx, entry); resp != nil {
				resps = append(resps, resp)
			}
		}
	}

	return codec.Marshal(payload.Batch, resps)
}

// processParallel executes batch entries concurrently while keeping the
// responses in positional order.
func (p *Processor) processParallel(ctx context.Context, entries []codec.Entry) []*protocol.Response {
	slots := make([]*protocol.Response, len(entries))
	sem := make(chan struct{}, p.concurrency)

	var wg sync.WaitGroup
	for i, entry := range entries {
		wg.Add(1)
		go func(i int, entry codec.Entry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			slots[i] = p.processEntry(ctx, entry)
		}(i, entry)
	}
	wg.Wait()

	resps := make([]*protocol.Response, 0, len(entries))
	for _, resp := range slots {
		if resp != nil {
			resps = append(resps, resp)
		}
	}
	return resps
}

// processEntry handles one decoded entry. It returns nil for
// notifications, whose results and faults are discarded.
func (p *Processor) processEntry(ctx context.Context, entry codec.Entry) *protocol.Response {
	if entry.Fault != nil {
		return codec.FaultResponse(entry.ID, entry.Fault)
	}

	result, err := p.handler(ctx, &entry.Request)

	if entry.Notify {
		if err != nil {
			p.logger.Debug("notification failed",
				middleware.F("tool", entry.Request.Tool),
				middleware.F("error", err.Error()),
			)
		}
		return nil
	}

	if err != nil {
		return codec.FaultResponse(entry.ID, domain.AsFault(err))
	}
	return codec.ToWire(domain.Ok(entry.Request.ID, result))
}

// execute is the innermost handler: resolve the tool and run it.
func (p *Processor) execute(ctx context.Context, call *domain.Request) (json.RawMessage, error) {
	tool, ok := p.registry.Resolve(call.Tool)
	if !ok {
		return nil, domain.NewToolNotFound(call.Tool)
	}
	return tool.Execute(ctx, call.Params)
}

// reject answers every request in the payload with an execution fault,
// used while the server is draining.
func (p *Processor) reject(frame []byte) ([]byte, bool, error) {
	payload, fault := codec.Decode(frame)
	if fault != nil {
		resp := codec.FaultResponse(protocol.NullID(), fault)
		return codec.Marshal(false, []*protocol.Response{resp})
	}

	shedding := domain.NewExecution("server is shutting down")
	resps := make([]*protocol.Response, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		if entry.Fault == nil && entry.Notify {
			continue
		}
		if entry.Fault != nil {
			resps = append(resps, codec.FaultResponse(entry.ID, entry.Fault))
			continue
		}
		resps = append(resps, codec.FaultResponse(entry.ID, shedding))
	}
	return codec.Marshal(payload.Batch, resps)
}
