package codec

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/toolwire/toolwire/domain"
	"github.com/toolwire/toolwire/protocol"
)

// Entry is one decoded element of a payload. When Fault is nil the entry
// carries a valid domain Request; Notify marks fire-and-forget entries
// that never receive a response. A structurally invalid entry is never
// classified as a notification: its Fault is set, Notify is false, and a
// response is owed under the extracted id or null.
type Entry struct {
	Request domain.Request
	Notify  bool
	Fault   *domain.Fault

	// ID is the wire identifier the eventual response must echo; null
	// when it could not be recovered.
	ID protocol.ID
}

// Payload is the result of decoding one raw message. Batch distinguishes a
// one-element array from a bare object, since the reply shape differs.
type Payload struct {
	Batch   bool
	Entries []Entry
}

// Decode parses one raw message unit. A non-nil fault return is fatal for
// the whole payload (unparseable bytes, or an empty batch) and the caller
// answers it with a single error response under the null id. Per-entry
// problems are reported on the entries themselves.
func Decode(data []byte) (*Payload, *domain.Fault) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, domain.NewParse("empty payload")
	}

	if trimmed[0] == '[' {
		return decodeBatch(data)
	}

	if !json.Valid(data) {
		return nil, domain.NewParse("invalid JSON")
	}

	return &Payload{Entries: []Entry{decodeEntry(data)}}, nil
}

func decodeBatch(data []byte) (*Payload, *domain.Fault) {
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, domain.NewParse("invalid JSON").WithCause(err)
	}
	if len(elems) == 0 {
		return nil, domain.NewInvalidRequest("batch must not be empty")
	}

	payload := &Payload{Batch: true, Entries: make([]Entry, 0, len(elems))}
	for _, elem := range elems {
		payload.Entries = append(payload.Entries, decodeEntry(elem))
	}
	return payload, nil
}

// decodeEntry validates a single object against the request grammar and
// converts it to a domain Request. Params default to JSON null when absent.
func decodeEntry(raw json.RawMessage) Entry {
	var req protocol.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Entry{
			Fault: domain.NewInvalidRequest("not a request object").WithCause(err),
			ID:    extractID(raw),
		}
	}

	if err := req.Validate(); err != nil {
		msg := err.Error()
		var perr *protocol.Error
		if errors.As(err, &perr) {
			msg = perr.Message
		}
		return Entry{
			Fault: domain.NewInvalidRequest(msg),
			ID:    responseID(req.ID),
		}
	}

	if req.ID.IsNull() {
		return Entry{
			Fault: domain.NewInvalidRequest("request id must not be null"),
			ID:    protocol.NullID(),
		}
	}

	params := req.Params
	if len(params) == 0 {
		params = json.RawMessage("null")
	}

	return Entry{
		Request: domain.Request{
			ID:     req.ID.Key(),
			Tool:   req.Method,
			Params: params,
		},
		Notify: req.ID.IsAbsent(),
		ID:     responseID(req.ID),
	}
}

// extractID pulls an id out of an object that failed to decode as a
// request, so the error response can still be correlated when possible.
func extractID(raw json.RawMessage) protocol.ID {
	var probe struct {
		ID protocol.ID `json:"id,omitzero"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return protocol.NullID()
	}
	return responseID(probe.ID)
}

// responseID maps an absent id to null for use in a response, where the id
// member is mandatory.
func responseID(id protocol.ID) protocol.ID {
	if id.IsAbsent() {
		return protocol.NullID()
	}
	return id
}
