package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a Fault. Each kind maps to exactly one JSON-RPC error
// code in the codec package.
type Kind uint8

const (
	// KindParse marks payloads that were not valid JSON at all.
	KindParse Kind = iota + 1
	// KindInvalidRequest marks structurally invalid requests.
	KindInvalidRequest
	// KindToolNotFound marks calls to unregistered tool names.
	KindToolNotFound
	// KindInvalidParams marks parameter validation failures.
	KindInvalidParams
	// KindExecution marks failures reported by a tool during execution.
	KindExecution
	// KindInternal marks unclassified failures inside the adapter.
	KindInternal
	// KindTransport marks transport-level faults; these terminate the
	// session instead of producing an error response.
	KindTransport
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindInvalidRequest:
		return "invalid_request"
	case KindToolNotFound:
		return "tool_not_found"
	case KindInvalidParams:
		return "invalid_params"
	case KindExecution:
		return "execution"
	case KindInternal:
		return "internal"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Fault is a typed domain failure. It implements error; errors.Is matches
// faults by kind.
type Fault struct {
	Kind    Kind
	Message string
	cause   error
}

// New creates a fault of the given kind.
func New(kind Kind, msg string) *Fault {
	return &Fault{Kind: kind, Message: msg}
}

// Error implements the error interface.
func (f *Fault) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Is implements errors.Is comparison by kind.
func (f *Fault) Is(target error) bool {
	t, ok := target.(*Fault)
	if !ok {
		return false
	}
	return f.Kind == t.Kind
}

// Unwrap returns the underlying cause, if any.
func (f *Fault) Unwrap() error {
	return f.cause
}

// WithCause returns a copy of the fault wrapping an underlying error.
func (f *Fault) WithCause(err error) *Fault {
	return &Fault{Kind: f.Kind, Message: f.Message, cause: err}
}

// NewParse creates a parse fault.
func NewParse(msg string) *Fault {
	return New(KindParse, msg)
}

// NewInvalidRequest creates an invalid request fault.
func NewInvalidRequest(msg string) *Fault {
	return New(KindInvalidRequest, msg)
}

// NewToolNotFound creates a fault for an unregistered tool name.
func NewToolNotFound(tool string) *Fault {
	return New(KindToolNotFound, fmt.Sprintf("tool %q not found", tool))
}

// NewInvalidParams creates a parameter validation fault.
func NewInvalidParams(msg string) *Fault {
	return New(KindInvalidParams, msg)
}

// NewExecution creates a tool execution fault.
func NewExecution(msg string) *Fault {
	return New(KindExecution, msg)
}

// NewInternal creates an internal fault.
func NewInternal(msg string) *Fault {
	return New(KindInternal, msg)
}

// NewTransport creates a transport fault wrapping the underlying I/O error.
func NewTransport(err error) *Fault {
	return &Fault{Kind: KindTransport, Message: err.Error(), cause: err}
}

// AsFault normalizes an arbitrary error into a Fault. Existing faults pass
// through unchanged; anything else becomes an execution fault, since the
// only non-fault errors that reach dispatch come out of tool handlers.
func AsFault(err error) *Fault {
	var f *Fault
	if errors.As(err, &f) {
		return f
	}
	return NewExecution(err.Error()).WithCause(err)
}
