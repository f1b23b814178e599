package schema

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// FieldType enumerates the JSON types a schema field may require.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// Field describes one field of a structured-output schema.
type Field struct {
	Name        string    `json:"name"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	// MaxLength bounds string fields; 0 means unbounded.
	MaxLength int  `json:"max_length,omitempty"`
	Required  bool `json:"required"`
}

// Schema is an explicit description of a structured result the model must
// produce. It compiles to a JSON schema for tool advertising and validates
// candidate data, reporting violations instead of panicking.
type Schema struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Fields      []Field `json:"fields"`
}

// JSONSchema compiles the schema into a plain JSON-schema object suitable
// for advertising as tool parameters.
func (s *Schema) JSONSchema() map[string]any {
	properties := map[string]any{}
	required := []string{}
	for _, f := range s.Fields {
		prop := map[string]any{
			"type": string(f.Type),
		}
		if f.Description != "" {
			prop["description"] = f.Description
		}
		if f.Type == TypeString && f.MaxLength > 0 {
			prop["maxLength"] = f.MaxLength
		}
		properties[f.Name] = prop
		if f.Required {
			required = append(required, f.Name)
		}
	}
	out := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// Validate checks data against the schema. On success it returns the data
// restricted to the declared fields; on failure it returns a
// *ViolationError listing every violation.
func (s *Schema) Validate(data map[string]any) (map[string]any, error) {
	schemaLoader := gojsonschema.NewGoLoader(s.JSONSchema())
	dataLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return nil, errors.Wrapf(err, "validate against schema %s", s.Name)
	}
	if !result.Valid() {
		verr := &ViolationError{Schema: s.Name}
		for _, e := range result.Errors() {
			verr.Violations = append(verr.Violations, Violation{
				Field:   e.Field(),
				Message: e.Description(),
			})
		}
		return nil, verr
	}

	validated := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		if v, ok := data[f.Name]; ok {
			validated[f.Name] = v
		}
	}
	return validated, nil
}

// Violation describes a single schema violation.
type Violation struct {
	Field   string
	Message string
}

// ViolationError aggregates all violations found while validating data
// against a Schema. It is a recoverable error: callers surface it to the
// model as ordinary tool-result content.
type ViolationError struct {
	Schema     string
	Violations []Violation
}

func (e *ViolationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.Field != "" && v.Field != "(root)" {
			parts = append(parts, fmt.Sprintf("%s: %s", v.Field, v.Message))
		} else {
			parts = append(parts, v.Message)
		}
	}
	return fmt.Sprintf("schema %s: %s", e.Schema, strings.Join(parts, "; "))
}

// IsViolation reports whether err is (or wraps) a ViolationError.
func IsViolation(err error) bool {
	var verr *ViolationError
	return errors.As(err, &verr)
}
