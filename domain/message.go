package domain

import "encoding/json"

// Request is a protocol-neutral call to a named tool. ID is the opaque
// correlation key produced by the codec; Tool is the registry lookup name;
// Params is the raw parameter value, JSON null when the caller sent none.
type Request struct {
	ID     string
	Tool   string
	Params json.RawMessage
}

// Response carries the outcome of executing a Request. Exactly one of
// Result and Fault is meaningful; ID echoes the originating request's ID.
type Response struct {
	ID     string
	Result json.RawMessage
	Fault  *Fault
}

// Ok returns a successful response for the given request id.
func Ok(id string, result json.RawMessage) Response {
	return Response{ID: id, Result: result}
}

// Fail returns a failed response for the given request id.
func Fail(id string, fault *Fault) Response {
	return Response{ID: id, Fault: fault}
}
