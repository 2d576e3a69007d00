// Package registry provides the name-indexed store of executable tools.
//
// A Registry is built once at startup and shared by reference across every
// dispatch session; it is read-only during steady-state operation. Tools
// must be safe for concurrent invocation.
package registry

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

// Tool is an executable capability. Execute receives the raw parameter
// value (JSON null when the caller sent none) and returns a raw result or
// an error. Returning a *domain.Fault selects the wire error code;
// any other error is treated as a tool execution failure.
type Tool interface {
	Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error)
}

// ToolFunc is an adapter to allow ordinary functions as tools.
type ToolFunc func(ctx context.Context, params json.RawMessage) (json.RawMessage, error)

// Execute calls f(ctx, params).
func (f ToolFunc) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	return f(ctx, params)
}

// ErrEmptyName is returned when registering a tool under an empty name.
var ErrEmptyName = errors.New("registry: tool name must not be empty")

// Info describes a registered tool for introspection.
type Info struct {
	Name        string
	Description string
	InputSchema any
}

type entry struct {
	tool Tool
	info Info
}

// Registry maps tool names to executable capabilities. Lookup is exact and
// case-sensitive.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register inserts or replaces the tool under the given name. It fails
// only when the name is empty.
func (r *Registry) Register(name string, tool Tool) error {
	return r.register(name, tool, Info{Name: name})
}

func (r *Registry) register(name string, tool Tool, info Info) error {
	if name == "" {
		return ErrEmptyName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = entry{tool: tool, info: info}
	return nil
}

// Resolve looks up a tool by exact name. Absence is not fatal; the caller
// turns it into a per-request tool-not-found fault.
func (r *Registry) Resolve(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.tool, ok
}

// Describe returns introspection info for a registered tool.
func (r *Registry) Describe(name string) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e.info, ok
}

// List returns the registered tool names in unspecified order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Builder provides fluent registry construction.
type Builder struct {
	reg *Registry
	err error
}

// NewBuilder creates a registry builder.
func NewBuilder() *Builder {
	return &Builder{reg: New()}
}

// Tool registers a tool under the given name.
func (b *Builder) Tool(name string, tool Tool) *Builder {
	if b.err == nil {
		b.err = b.reg.Register(name, tool)
	}
	return b
}

// ToolFunc registers a plain function under the given name.
func (b *Builder) ToolFunc(name string, fn ToolFunc) *Builder {
	return b.Tool(name, fn)
}

// Build returns the registry, or the first registration error.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.reg, nil
}
