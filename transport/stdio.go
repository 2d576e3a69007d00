package transport

import (
	"io"
	"os"
)

// Stdio carries frames over standard input and output. It is the usual
// transport for adapters spawned as subprocesses.
type Stdio struct {
	*Stream
}

type stdioConfig struct {
	in   io.Reader
	out  io.Writer
	opts []StreamOption
}

// StdioOption configures a Stdio transport.
type StdioOption func(*stdioConfig)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(c *stdioConfig) {
		c.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(c *stdioConfig) {
		c.out = w
	}
}

// WithStdioMaxFrameSize sets the maximum inbound frame size.
func WithStdioMaxFrameSize(n int) StdioOption {
	return func(c *stdioConfig) {
		c.opts = append(c.opts, WithMaxFrameSize(n))
	}
}

// NewStdio creates a stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	cfg := &stdioConfig{
		in:  os.Stdin,
		out: os.Stdout,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &Stdio{Stream: NewStream(cfg.in, cfg.out, cfg.opts...)}
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}
