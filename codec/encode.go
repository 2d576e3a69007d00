package codec

import (
	"encoding/json"

	"github.com/toolwire/toolwire/domain"
	"github.com/toolwire/toolwire/protocol"
)

// WireError maps a domain fault to its JSON-RPC error object. The code and
// message come from the fixed table; the fault's own message rides along in
// the data member for diagnostics.
func WireError(f *domain.Fault) *protocol.Error {
	var err *protocol.Error
	switch f.Kind {
	case domain.KindParse:
		err = protocol.NewParseError("Parse error")
	case domain.KindInvalidRequest:
		err = protocol.NewInvalidRequest("Invalid Request")
	case domain.KindToolNotFound:
		err = protocol.NewMethodNotFound("Method not found")
	case domain.KindInvalidParams:
		err = protocol.NewInvalidParams("Invalid params")
	case domain.KindExecution:
		err = protocol.NewServerError("Server error")
	default:
		err = protocol.NewInternalError("Internal error")
	}
	return err.WithData(map[string]string{"error": f.Error()})
}

// FaultFromWire maps a JSON-RPC error object back to a domain fault, the
// inverse of WireError. Unknown codes inside the server error range map
// to execution faults; anything else is internal.
func FaultFromWire(e *protocol.Error) *domain.Fault {
	var kind domain.Kind
	switch {
	case e.Code == protocol.CodeParseError:
		kind = domain.KindParse
	case e.Code == protocol.CodeInvalidRequest:
		kind = domain.KindInvalidRequest
	case e.Code == protocol.CodeMethodNotFound:
		kind = domain.KindToolNotFound
	case e.Code == protocol.CodeInvalidParams:
		kind = domain.KindInvalidParams
	case e.Code <= protocol.CodeServerError && e.Code >= protocol.CodeServerError-99:
		kind = domain.KindExecution
	default:
		kind = domain.KindInternal
	}

	msg := e.Message
	if data, ok := e.Data.(map[string]any); ok {
		if detail, ok := data["error"].(string); ok && detail != "" {
			msg = detail
		}
	}
	return domain.New(kind, msg)
}

// ToWire converts a domain response into its wire form. The domain id key
// is parsed back into the identifier it originated from, preserving the
// string/number distinction.
func ToWire(resp domain.Response) *protocol.Response {
	id := protocol.ParseKey(resp.ID)
	if resp.Fault != nil {
		return protocol.NewErrorResponse(id, WireError(resp.Fault))
	}
	return protocol.NewResponse(id, resp.Result)
}

// FaultResponse builds the wire response for a fault detected before any
// domain request existed, such as a parse failure for the whole payload.
func FaultResponse(id protocol.ID, f *domain.Fault) *protocol.Response {
	return protocol.NewErrorResponse(id, WireError(f))
}

// Marshal serializes the responses for one payload. A batch keeps its array
// shape even with a single element; a payload that produced no responses
// (all notifications) yields nil output and false, meaning nothing must be
// written to the transport, not even an empty array.
func Marshal(batch bool, resps []*protocol.Response) ([]byte, bool, error) {
	if len(resps) == 0 {
		return nil, false, nil
	}

	var (
		data []byte
		err  error
	)
	if batch {
		data, err = json.Marshal(resps)
	} else {
		data, err = json.Marshal(resps[0])
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}
