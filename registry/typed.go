package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/toolwire/toolwire/domain"
	"github.com/toolwire/toolwire/schema"
)

// ToolBuilder provides a fluent API for registering typed tools whose
// parameters are unmarshaled into a Go struct, with an input schema
// generated from the struct type.
type ToolBuilder struct {
	reg         *Registry
	name        string
	description string
	validate    bool
	err         error
}

// Tool starts building a typed tool with the given name.
func (r *Registry) Tool(name string) *ToolBuilder {
	return &ToolBuilder{reg: r, name: name}
}

// Description sets the tool description.
func (b *ToolBuilder) Description(desc string) *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.description = desc
	return b
}

// ValidateInput enables runtime schema validation of tool inputs. Invalid
// inputs result in an invalid-params fault before the handler runs.
func (b *ToolBuilder) ValidateInput() *ToolBuilder {
	if b.err != nil {
		return b
	}
	b.validate = true
	return b
}

// Handler sets the tool handler and registers the tool.
// Handler signature must be one of:
//   - func(input T) (R, error)
//   - func(ctx context.Context, input T) (R, error)
func (b *ToolBuilder) Handler(fn any) *ToolBuilder {
	if b.err != nil {
		return b
	}

	tool, err := newTypedTool(fn, b.validate)
	if err != nil {
		b.err = err
		return b
	}

	b.err = b.reg.register(b.name, tool, Info{
		Name:        b.name,
		Description: b.description,
		InputSchema: tool.inputSchema,
	})
	return b
}

// Err returns the first error encountered while building, if any.
func (b *ToolBuilder) Err() error {
	return b.err
}

// typedTool executes a reflection-validated handler function.
type typedTool struct {
	handler     reflect.Value
	inputType   reflect.Type
	inputSchema *schema.Schema
	validate    bool
	hasContext  bool
}

func newTypedTool(fn any, validate bool) (*typedTool, error) {
	fnType := reflect.TypeOf(fn)
	if fnType == nil || fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("handler must be a function, got %T", fn)
	}

	t := &typedTool{handler: reflect.ValueOf(fn), validate: validate}

	numIn := fnType.NumIn()
	if numIn < 1 || numIn > 2 {
		return nil, fmt.Errorf("handler must have 1 or 2 parameters, got %d", numIn)
	}

	inputIdx := 0
	if numIn == 2 {
		ctxType := reflect.TypeOf((*context.Context)(nil)).Elem()
		if !fnType.In(0).Implements(ctxType) {
			return nil, fmt.Errorf("first parameter must be context.Context when using 2 parameters")
		}
		t.hasContext = true
		inputIdx = 1
	}

	inputType := fnType.In(inputIdx)
	if inputType.Kind() == reflect.Ptr {
		inputType = inputType.Elem()
	}
	t.inputType = inputType

	inputSchema, err := schema.GenerateFromType(inputType)
	if err != nil {
		return nil, fmt.Errorf("failed to generate input schema: %w", err)
	}
	t.inputSchema = inputSchema

	if fnType.NumOut() != 2 {
		return nil, fmt.Errorf("handler must return (result, error), got %d return values", fnType.NumOut())
	}
	errType := reflect.TypeOf((*error)(nil)).Elem()
	if !fnType.Out(1).Implements(errType) {
		return nil, fmt.Errorf("second return value must be error")
	}

	return t, nil
}

// Execute unmarshals params into the handler's input type, invokes it, and
// marshals the result back to raw JSON.
func (t *typedTool) Execute(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	if t.validate && t.inputSchema != nil {
		if err := t.inputSchema.Validate(params); err != nil {
			return nil, domain.NewInvalidParams(fmt.Sprintf("input validation failed: %v", err)).WithCause(err)
		}
	}

	inputPtr := reflect.New(t.inputType)
	if len(params) > 0 && string(params) != "null" {
		if err := json.Unmarshal(params, inputPtr.Interface()); err != nil {
			return nil, domain.NewInvalidParams(fmt.Sprintf("failed to parse input: %v", err)).WithCause(err)
		}
	}

	args := make([]reflect.Value, 0, 2)
	if t.hasContext {
		args = append(args, reflect.ValueOf(ctx))
	}
	args = append(args, inputPtr.Elem())

	results := t.handler.Call(args)

	if errVal := results[1].Interface(); errVal != nil {
		return nil, errVal.(error)
	}

	out, err := json.Marshal(results[0].Interface())
	if err != nil {
		return nil, domain.NewInternal(fmt.Sprintf("failed to encode result: %v", err)).WithCause(err)
	}
	return out, nil
}
