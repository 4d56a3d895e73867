package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/flagbridge/flagbridge/mcp"
	"github.com/invopop/jsonschema"
)

// InputSchema is the validator capability attached to every tool. Any
// implementation exposing a descriptor plus a parse step is interchangeable;
// the registry depends on nothing else.
type InputSchema interface {
	// Descriptor returns the schema advertised in tool listings.
	Descriptor() mcp.ToolInputSchema
	// Parse validates raw arguments and returns the typed value, or a
	// *ValidationError aggregating every field-level violation.
	Parse(raw json.RawMessage) (any, error)
}

// FieldViolation is one field-level schema violation.
type FieldViolation struct {
	Field  string
	Detail string
}

func (v FieldViolation) String() string {
	return v.Field + ": " + v.Detail
}

// ValidationError aggregates all field violations found in one parse pass so
// the caller can fix everything in a single round trip.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.String()
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// SchemaFor reflects a typed argument struct into an InputSchema. Fields
// without omitempty are required; unknown fields are rejected at parse time.
func SchemaFor[A any]() InputSchema {
	return &typedSchema[A]{desc: reflectInputSchema[A]()}
}

type typedSchema[A any] struct {
	desc mcp.ToolInputSchema
}

func (s *typedSchema[A]) Descriptor() mcp.ToolInputSchema { return s.desc }

func (s *typedSchema[A]) Parse(raw json.RawMessage) (any, error) {
	fields := map[string]json.RawMessage{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, &ValidationError{Violations: []FieldViolation{
				{Field: "arguments", Detail: "not a JSON object: " + err.Error()},
			}}
		}
	}

	var violations []FieldViolation
	for _, req := range s.desc.Required {
		if _, ok := fields[req]; !ok {
			violations = append(violations, FieldViolation{Field: req, Detail: "missing required field"})
		}
	}
	if !s.desc.AdditionalProperties {
		var unknown []string
		for name := range fields {
			if _, ok := s.desc.Properties[name]; !ok {
				unknown = append(unknown, name)
			}
		}
		sort.Strings(unknown)
		for _, name := range unknown {
			violations = append(violations, FieldViolation{Field: name, Detail: "unknown field"})
		}
	}
	if len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	var a A
	if len(raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&a); err != nil {
			var ute *json.UnmarshalTypeError
			if errors.As(err, &ute) && ute.Field != "" {
				return nil, &ValidationError{Violations: []FieldViolation{
					{Field: ute.Field, Detail: fmt.Sprintf("expected %s, got %s", ute.Type, ute.Value)},
				}}
			}
			return nil, &ValidationError{Violations: []FieldViolation{
				{Field: "arguments", Detail: err.Error()},
			}}
		}
	}
	return a, nil
}

// reflectInputSchema reflects a Go struct A into the simplified wire schema
// using invopop/jsonschema. Non-object shapes collapse to an empty object.
func reflectInputSchema[A any]() mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference: true, // inline defs
		ExpandedStruct: true, // put struct at root
	}
	s := r.Reflect(new(A))

	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]mcp.SchemaProperty{},
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toWireProperty(el.Value)
		}
	}
	var required []string
	if len(s.Required) > 0 {
		required = append(required, s.Required...)
	}

	return mcp.ToolInputSchema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// toWireProperty recursively maps a jsonschema node to the simplified wire shape.
func toWireProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toWireProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toWireProperty(el.Value)
		}
		p.Properties = m
	}
	return p
}
