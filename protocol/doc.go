// Package protocol defines the JSON-RPC 2.0 message types, identifiers,
// and error codes used on the wire.
//
// This is the only package that knows the literal field names of the wire
// format ("jsonrpc", "method", "params", "id", "result", "error") and the
// numeric error codes. Most users should use the higher-level toolwire
// package instead.
//
// # Identifiers
//
// A JSON-RPC id is a string, an integer, or null. The ID type keeps the
// distinction, including the difference between an id that is absent (a
// notification) and one that is explicitly null:
//
//	protocol.NewIntID(7)       // "id":7
//	protocol.NewStringID("7")  // "id":"7"
//	protocol.NullID()          // "id":null
//	protocol.ID{}              // no "id" key at all
//
// ID.Key returns the canonical JSON text of the id, which is what the
// domain layer carries; ParseKey inverts it losslessly.
//
// # Error Codes
//
// Standard JSON-RPC 2.0 error codes are defined as constants:
//
//	CodeParseError     = -32700  // Invalid JSON
//	CodeInvalidRequest = -32600  // Invalid Request object
//	CodeMethodNotFound = -32601  // Method not found
//	CodeInvalidParams  = -32602  // Invalid method parameters
//	CodeInternalError  = -32603  // Internal server error
//	CodeServerError    = -32000  // Tool-reported execution failure
//
// Helper functions create properly formatted errors:
//
//	err := protocol.NewMethodNotFound("unknown/method")
//	err := protocol.NewInvalidParams("missing required field: name")
package protocol
