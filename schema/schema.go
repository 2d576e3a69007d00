package schema

import (
	"reflect"
	"strconv"
	"strings"
)

// Schema type names.
const (
	typeObject  = "object"
	typeArray   = "array"
	typeString  = "string"
	typeInteger = "integer"
	typeNumber  = "number"
	typeBoolean = "boolean"
)

// Schema represents a JSON Schema.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Description string             `json:"description,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
}

// Generate creates a JSON Schema from a Go value.
func Generate(v any) (*Schema, error) {
	return GenerateFromType(reflect.TypeOf(v))
}

// GenerateFromType creates a JSON Schema from a reflect.Type.
func GenerateFromType(t reflect.Type) (*Schema, error) {
	if t == nil {
		return &Schema{}, nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		return generateStructSchema(t)
	case reflect.String:
		return &Schema{Type: typeString}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: typeInteger}, nil
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: typeNumber}, nil
	case reflect.Bool:
		return &Schema{Type: typeBoolean}, nil
	case reflect.Slice, reflect.Array:
		items, err := GenerateFromType(t.Elem())
		if err != nil {
			return nil, err
		}
		return &Schema{Type: typeArray, Items: items}, nil
	case reflect.Map:
		return &Schema{Type: typeObject}, nil
	default:
		// interfaces and anything else accept any value
		return &Schema{}, nil
	}
}

func generateStructSchema(t reflect.Type) (*Schema, error) {
	s := &Schema{
		Type:       typeObject,
		Properties: make(map[string]*Schema),
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name := field.Name
		if jsonTag != "" {
			if base, _, _ := strings.Cut(jsonTag, ","); base != "" {
				name = base
			}
		}

		fieldSchema, err := GenerateFromType(field.Type)
		if err != nil {
			return nil, err
		}

		applyTag(field.Tag.Get("jsonschema"), fieldSchema, &s.Required, name)
		s.Properties[name] = fieldSchema
	}

	return s, nil
}

// applyTag parses the jsonschema struct tag onto a field schema.
func applyTag(tag string, s *Schema, required *[]string, fieldName string) {
	if tag == "" {
		return
	}

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "required":
			*required = append(*required, fieldName)
		case strings.HasPrefix(part, "description="):
			s.Description = strings.TrimPrefix(part, "description=")
		case strings.HasPrefix(part, "minimum="):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(part, "minimum="), 64); err == nil {
				s.Minimum = &v
			}
		case strings.HasPrefix(part, "maximum="):
			if v, err := strconv.ParseFloat(strings.TrimPrefix(part, "maximum="), 64); err == nil {
				s.Maximum = &v
			}
		case strings.HasPrefix(part, "enum="):
			for _, e := range strings.Split(strings.TrimPrefix(part, "enum="), "|") {
				s.Enum = append(s.Enum, e)
			}
		}
	}
}
