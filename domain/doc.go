// Package domain defines the protocol-neutral request, response, and fault
// types that tool execution logic works with.
//
// Nothing in this package knows about JSON-RPC: identifiers are opaque
// strings, parameters and results are raw JSON values, and failures are
// typed Faults. The codec package converts between this model and the wire
// format.
package domain
