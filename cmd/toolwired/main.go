// Command toolwired serves a small set of built-in tools over the
// transport selected by the environment. It is mainly a reference for
// wiring a Server; real deployments register their own tools.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/toolwire/toolwire"
	"github.com/toolwire/toolwire/middleware"
	"github.com/toolwire/toolwire/registry"
	"github.com/toolwire/toolwire/transport"
)

type config struct {
	// Transport selects how peers connect: stdio, tcp, unix or websocket.
	Transport   string        `env:"TOOLWIRE_TRANSPORT" envDefault:"stdio"`
	Addr        string        `env:"TOOLWIRE_ADDR" envDefault:"127.0.0.1:7420"`
	SocketPath  string        `env:"TOOLWIRE_SOCKET" envDefault:"/tmp/toolwired.sock"`
	LogLevel    string        `env:"TOOLWIRE_LOG_LEVEL" envDefault:"info"`
	CallTimeout time.Duration `env:"TOOLWIRE_CALL_TIMEOUT" envDefault:"30s"`
	MaxParamsKB int64         `env:"TOOLWIRE_MAX_PARAMS_KB" envDefault:"256"`
	Concurrency int           `env:"TOOLWIRE_CONCURRENCY" envDefault:"1"`
}

type greetInput struct {
	Name string `json:"name" jsonschema:"required,description=Who to greet"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "toolwired:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	// Logs go to stderr so the stdio transport keeps stdout to itself.
	log := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	logger := middleware.NewZerolog(log)

	reg, err := buildRegistry()
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	mws := middleware.DefaultStackWithTimeout(logger, cfg.CallTimeout)
	mws = append(mws, middleware.SizeLimit(cfg.MaxParamsKB*middleware.KB,
		middleware.WithSizeLimitLogger(logger)))

	srv := toolwire.NewServer(reg,
		toolwire.WithLogger(logger),
		toolwire.WithMiddleware(mws...),
		toolwire.WithConcurrency(cfg.Concurrency),
		toolwire.WithGracefulShutdown(transport.DefaultShutdownConfig()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cfg.Transport {
	case "stdio":
		log.Info().Msg("serving on stdio")
		return srv.ServeStdio(ctx)

	case "tcp":
		l, err := transport.ListenTCP(cfg.Addr)
		if err != nil {
			return fmt.Errorf("listen tcp: %w", err)
		}
		log.Info().Str("addr", l.Addr()).Msg("serving on tcp")
		return srv.Serve(ctx, l)

	case "unix":
		l, err := transport.ListenUnix(cfg.SocketPath)
		if err != nil {
			return fmt.Errorf("listen unix: %w", err)
		}
		log.Info().Str("socket", cfg.SocketPath).Msg("serving on unix socket")
		return srv.Serve(ctx, l)

	case "websocket":
		log.Info().Str("addr", cfg.Addr).Msg("serving on websocket")
		return srv.ServeWebSocket(ctx, cfg.Addr)

	default:
		return fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func buildRegistry() (*registry.Registry, error) {
	reg := registry.New()

	b := reg.Tool("greet").
		Description("Greets by name").
		ValidateInput().
		Handler(func(in greetInput) (string, error) {
			return "Hello, " + in.Name, nil
		})
	if err := b.Err(); err != nil {
		return nil, err
	}

	b = reg.Tool("time.now").
		Description("Returns the current time in RFC 3339 form").
		Handler(func(struct{}) (string, error) {
			return time.Now().Format(time.RFC3339), nil
		})
	if err := b.Err(); err != nil {
		return nil, err
	}

	return reg, nil
}
