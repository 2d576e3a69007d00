// Package dispatch runs the receive-decode-execute-respond loop that ties
// a transport to a tool registry.
//
// A Processor owns one transport. Run pulls payloads off it until the
// stream ends or the context is canceled, decodes each payload, executes
// the named tools through the configured middleware chain, and writes
// back the encoded responses. Notifications execute but never produce
// output; a payload consisting only of notifications writes nothing at
// all.
package dispatch
