// Package transport provides byte-stream transports for framed JSON-RPC
// payloads.
//
// A Transport carries opaque frames in both directions; it never inspects
// their content. Stream adapts any io.Reader/io.Writer pair using
// newline-delimited framing, and Stdio, TCP and Unix socket transports are
// built on top of it. WebSocket connections carry one payload per message
// and need no extra framing.
//
// All transports report ErrClosed once the underlying stream has ended,
// which the dispatch loop treats as orderly shutdown.
package transport
