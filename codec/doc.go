// Package codec converts between JSON-RPC wire bytes and the domain model.
//
// Decode turns one raw message, which may be a single object or a batch
// array, into a Payload of independent entries; Encode and Marshal turn
// domain responses back into wire bytes. The fixed mapping between fault
// kinds and JSON-RPC error codes lives here and nowhere else:
//
//	parse            -32700  Parse error
//	invalid_request  -32600  Invalid Request
//	tool_not_found   -32601  Method not found
//	invalid_params   -32602  Invalid params
//	execution        -32000  Server error
//	internal         -32603  Internal error
package codec
