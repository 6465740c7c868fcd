// Package validation checks configuration documents against JSON schemas.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaSource supplies schemas by document kind.
type SchemaSource interface {
	GetSchema(kind string) (string, bool)
}

// SchemaValidator implements DocumentValidator using santhosh-tekuri/jsonschema.
// Compiled schemas are cached per kind.
type SchemaValidator struct {
	source   SchemaSource
	compiled map[string]*jsonschema.Schema
	mu       sync.Mutex
}

// NewSchemaValidator creates a validator reading schemas from source.
func NewSchemaValidator(source SchemaSource) *SchemaValidator {
	return &SchemaValidator{
		source:   source,
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate checks doc against the schema for kind. The error return is for
// missing or broken schemas; violations are reported in the result.
func (v *SchemaValidator) Validate(kind string, doc any) (*ValidationResult, error) {
	schema, err := v.schema(kind)
	if err != nil {
		return nil, err
	}

	inst, err := normalize(doc)
	if err != nil {
		return nil, fmt.Errorf("preparing document for validation: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return &ValidationResult{Valid: true}, nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, fmt.Errorf("validating %s: %w", kind, err)
	}

	var issues []ValidationIssue
	collect(ve, &issues)
	if len(issues) == 0 {
		issues = append(issues, ValidationIssue{Path: "/", Message: ve.Message})
	}
	return &ValidationResult{Valid: false, Errors: issues}, nil
}

func (v *SchemaValidator) schema(kind string) (*jsonschema.Schema, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if s, ok := v.compiled[kind]; ok {
		return s, nil
	}

	raw, ok := v.source.GetSchema(kind)
	if !ok {
		return nil, fmt.Errorf("no schema registered for %q", kind)
	}

	url := kind + ".schema.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, strings.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("adding schema %q: %w", kind, err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %q: %w", kind, err)
	}

	v.compiled[kind] = s
	return s, nil
}

// normalize round-trips doc through JSON so the validator sees only
// JSON types.
func normalize(doc any) (any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func collect(ve *jsonschema.ValidationError, issues *[]ValidationIssue) {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		*issues = append(*issues, ValidationIssue{Path: path, Message: ve.Message})
		return
	}
	for _, cause := range ve.Causes {
		collect(cause, issues)
	}
}
