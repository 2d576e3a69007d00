package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type idKind uint8

const (
	idAbsent idKind = iota
	idNull
	idString
	idNumber
)

// ID is a JSON-RPC request identifier: a string, an integer, or null.
// The zero value means the id is absent, which is how notifications are
// told apart from requests. An explicitly null id is distinct from an
// absent one and both survive a marshal round trip.
type ID struct {
	kind idKind
	str  string
	num  int64
}

// NewStringID returns a string identifier.
func NewStringID(s string) ID {
	return ID{kind: idString, str: s}
}

// NewIntID returns an integer identifier.
func NewIntID(n int64) ID {
	return ID{kind: idNumber, num: n}
}

// NullID returns the explicit null identifier.
func NullID() ID {
	return ID{kind: idNull}
}

// IsAbsent reports whether the id field was missing entirely.
func (id ID) IsAbsent() bool { return id.kind == idAbsent }

// IsNull reports whether the id is an explicit JSON null.
func (id ID) IsNull() bool { return id.kind == idNull }

// IsZero reports whether the id is absent. It makes the omitzero JSON
// option drop the field for notifications.
func (id ID) IsZero() bool { return id.kind == idAbsent }

// Equal reports whether two ids have the same variant and value.
func (id ID) Equal(other ID) bool {
	return id == other
}

// Key returns the canonical JSON text of the id: `7` for the number 7,
// `"7"` for the string "7", `null` for null or absent. It is the opaque
// identifier the domain layer correlates on; the string/number distinction
// survives the round trip through ParseKey byte for byte.
func (id ID) Key() string {
	switch id.kind {
	case idString:
		b, _ := json.Marshal(id.str)
		return string(b)
	case idNumber:
		return strconv.FormatInt(id.num, 10)
	default:
		return "null"
	}
}

// ParseKey parses the canonical JSON text produced by Key back into an ID.
// Unrecognized input maps to the null id, since a response must still carry
// an id field.
func ParseKey(key string) ID {
	var id ID
	if err := id.UnmarshalJSON([]byte(key)); err != nil || id.kind == idAbsent {
		return NullID()
	}
	return id
}

// String returns a human-readable form for logs.
func (id ID) String() string {
	switch id.kind {
	case idAbsent:
		return "<absent>"
	case idString:
		return id.str
	case idNumber:
		return strconv.FormatInt(id.num, 10)
	default:
		return "null"
	}
}

// MarshalJSON encodes the id. An absent id is encoded as null; callers use
// omitzero to drop the field instead.
func (id ID) MarshalJSON() ([]byte, error) {
	switch id.kind {
	case idString:
		return json.Marshal(id.str)
	case idNumber:
		return strconv.AppendInt(nil, id.num, 10), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a string, integer, or null id. Anything else,
// including fractional numbers, is rejected.
func (id *ID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ID{kind: idNull}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{kind: idString, str: s}
		return nil
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("id must be a string, integer, or null, got %s", data)
	}
	*id = ID{kind: idNumber, num: n}
	return nil
}
