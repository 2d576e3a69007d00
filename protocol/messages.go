package protocol

import (
	"encoding/json"
	"strings"
)

// Version is the JSON-RPC protocol version marker.
const Version = "2.0"

// Request represents a JSON-RPC 2.0 request or notification. A request
// with an absent ID is a notification and never receives a response.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      ID              `json:"id,omitzero"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification returns true if this request has no ID.
func (r *Request) IsNotification() bool {
	return r.ID.IsAbsent()
}

// Validate checks the request against the JSON-RPC 2.0 grammar: the version
// marker must be exactly "2.0", the method non-empty, and method names
// beginning with "rpc." are reserved by JSON-RPC 2.0.
func (r *Request) Validate() error {
	if r.JSONRPC != Version {
		return NewInvalidRequest(`jsonrpc version must be exactly "2.0"`)
	}
	if r.Method == "" {
		return NewInvalidRequest("method must not be empty")
	}
	if strings.HasPrefix(r.Method, "rpc.") {
		return NewInvalidRequest(`method names beginning with "rpc." are reserved`)
	}
	return nil
}

// Response represents a JSON-RPC 2.0 response. Exactly one of Result and
// Error is set; the ID always appears on the wire, as null when the
// originating id could not be determined.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      ID              `json:"id"`
}

// NewResponse creates a successful response. A nil result is encoded as an
// explicit JSON null so the result member is always present on success.
func NewResponse(id ID, result json.RawMessage) *Response {
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	return &Response{
		JSONRPC: Version,
		Result:  result,
		ID:      id,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(id ID, err *Error) *Response {
	return &Response{
		JSONRPC: Version,
		Error:   err,
		ID:      id,
	}
}

// Validate checks the response against the JSON-RPC 2.0 grammar: result and
// error are mutually exclusive and exactly one must be present.
func (r *Response) Validate() error {
	if r.JSONRPC != Version {
		return NewInvalidRequest(`jsonrpc version must be exactly "2.0"`)
	}
	hasResult := len(r.Result) > 0
	hasError := r.Error != nil
	switch {
	case hasResult && hasError:
		return NewInvalidRequest("response cannot contain both result and error")
	case !hasResult && !hasError:
		return NewInvalidRequest("response must contain either result or error")
	}
	if hasError {
		return r.Error.Validate()
	}
	return nil
}

// Notification is the wire shape of a request without an id. It exists for
// senders; the decoder classifies notifications through Request.ID.
type Notification struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// NewNotification creates a notification for the given method.
func NewNotification(method string, params json.RawMessage) *Notification {
	return &Notification{
		JSONRPC: Version,
		Method:  method,
		Params:  params,
	}
}
