package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// ValidationError represents a single schema violation.
type ValidationError struct {
	Path    string // JSON path to the invalid field, e.g. "user.email"
	Message string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString("validation failed:")
	for _, err := range e {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate validates raw JSON against the schema. Returns nil if valid, or
// ValidationErrors describing every violation found.
func (s *Schema) Validate(data json.RawMessage) error {
	var value any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &value); err != nil {
			return &ValidationError{Message: fmt.Sprintf("invalid JSON: %s", err)}
		}
	}

	var errs ValidationErrors
	s.validate("", value, &errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidateValue validates an already-decoded value against the schema.
func (s *Schema) ValidateValue(value any) error {
	var errs ValidationErrors
	s.validate("", value, &errs)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Schema) validate(path string, value any, errs *ValidationErrors) {
	if value == nil {
		// null is accepted for any type; required fields are enforced on
		// the enclosing object
		return
	}

	switch s.Type {
	case typeObject:
		s.validateObject(path, value, errs)
	case typeArray:
		s.validateArray(path, value, errs)
	case typeString:
		s.validateString(path, value, errs)
	case typeInteger:
		s.validateNumeric(path, value, true, errs)
	case typeNumber:
		s.validateNumeric(path, value, false, errs)
	case typeBoolean:
		if _, ok := value.(bool); !ok {
			fail(errs, path, "expected boolean, got %T", value)
		}
	}
}

func (s *Schema) validateObject(path string, value any, errs *ValidationErrors) {
	obj, ok := value.(map[string]any)
	if !ok {
		fail(errs, path, "expected object, got %T", value)
		return
	}

	for _, req := range s.Required {
		if _, exists := obj[req]; !exists {
			fail(errs, joinPath(path, req), "required field is missing")
		}
	}

	for name, prop := range s.Properties {
		if val, exists := obj[name]; exists {
			prop.validate(joinPath(path, name), val, errs)
		}
	}
}

func (s *Schema) validateArray(path string, value any, errs *ValidationErrors) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		fail(errs, path, "expected array, got %T", value)
		return
	}
	if s.Items == nil {
		return
	}
	for i := 0; i < rv.Len(); i++ {
		s.Items.validate(fmt.Sprintf("%s[%d]", path, i), rv.Index(i).Interface(), errs)
	}
}

func (s *Schema) validateString(path string, value any, errs *ValidationErrors) {
	str, ok := value.(string)
	if !ok {
		fail(errs, path, "expected string, got %T", value)
		return
	}
	if len(s.Enum) > 0 {
		for _, e := range s.Enum {
			if e == str {
				return
			}
		}
		fail(errs, path, "value must be one of: %v", s.Enum)
	}
}

func (s *Schema) validateNumeric(path string, value any, integer bool, errs *ValidationErrors) {
	num, ok := asFloat(value)
	if !ok {
		if integer {
			fail(errs, path, "expected integer, got %T", value)
		} else {
			fail(errs, path, "expected number, got %T", value)
		}
		return
	}
	if integer && num != float64(int64(num)) {
		fail(errs, path, "expected integer, got decimal number")
		return
	}

	if s.Minimum != nil && num < *s.Minimum {
		fail(errs, path, "value %v is less than minimum %v", num, *s.Minimum)
	}
	if s.Maximum != nil && num > *s.Maximum {
		fail(errs, path, "value %v is greater than maximum %v", num, *s.Maximum)
	}
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func fail(errs *ValidationErrors, path, format string, args ...any) {
	*errs = append(*errs, &ValidationError{
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func joinPath(base, field string) string {
	if base == "" {
		return field
	}
	return base + "." + field
}
