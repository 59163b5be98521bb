// pkg/core/field.go
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidFieldType = errors.New("invalid field type")
	ErrDuplicateField   = errors.New("duplicate field name")
	ErrEmptyFieldName   = errors.New("empty field name")
	ErrUnknownField     = errors.New("unknown field")
)

// FieldType is the declared value type of an annotation field.
type FieldType int

const (
	FieldInt FieldType = iota + 1
	FieldFloat
	FieldString
)

// String returns the name used in prompts and persisted schemas.
func (t FieldType) String() string {
	switch t {
	case FieldInt:
		return "int"
	case FieldFloat:
		return "float"
	case FieldString:
		return "str"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the three declared types.
func (t FieldType) Valid() bool {
	return t == FieldInt || t == FieldFloat || t == FieldString
}

// ParseFieldType converts user text (int, float, str, string) to a FieldType.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int":
		return FieldInt, nil
	case "float":
		return FieldFloat, nil
	case "str", "string":
		return FieldString, nil
	default:
		return 0, fmt.Errorf("%w: %q (expected int, float or str)", ErrInvalidFieldType, s)
	}
}

// MarshalText lets field types round-trip through JSON as their names.
func (t FieldType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFieldType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *FieldType) UnmarshalText(b []byte) error {
	parsed, err := ParseFieldType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Field is one declared (name, type) pair.
type Field struct {
	Name string    `json:"name"`
	Type FieldType `json:"type"`
}

// Schema is the ordered, immutable set of fields every record carries.
type Schema struct {
	fields []Field
}

// NewSchema validates fields and returns a schema holding its own copy.
func NewSchema(fields ...Field) (Schema, error) {
	seen := make(map[string]struct{}, len(fields))
	own := make([]Field, 0, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return Schema{}, ErrEmptyFieldName
		}
		if !f.Type.Valid() {
			return Schema{}, fmt.Errorf("%w: field %q", ErrInvalidFieldType, f.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return Schema{}, fmt.Errorf("%w: %q", ErrDuplicateField, f.Name)
		}
		seen[f.Name] = struct{}{}
		own = append(own, f)
	}
	return Schema{fields: own}, nil
}

// MustSchema is NewSchema for static declarations; it panics on invalid input.
func MustSchema(fields ...Field) Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns a copy of the declared fields in order.
func (s Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Names returns the field names in declaration order.
func (s Schema) Names() []string {
	out := make([]string, len(s.fields))
	for i, f := range s.fields {
		out[i] = f.Name
	}
	return out
}

// Len returns the number of declared fields.
func (s Schema) Len() int {
	return len(s.fields)
}

// Lookup finds a field by name.
func (s Schema) Lookup(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// At returns the i-th declared field.
func (s Schema) At(i int) (Field, bool) {
	if i < 0 || i >= len(s.fields) {
		return Field{}, false
	}
	return s.fields[i], true
}

// MarshalJSON encodes the schema as an ordered array of fields.
func (s Schema) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.fields)
}

// UnmarshalJSON decodes and validates an ordered array of fields.
func (s *Schema) UnmarshalJSON(b []byte) error {
	var fields []Field
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	parsed, err := NewSchema(fields...)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
