// Package registry implements a schema registry for configuration documents.
package registry

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

// Registry implements SchemaRegistry using in-memory storage.
type Registry struct {
	schemas   map[string]string
	reflector *jsonschema.Reflector
	mu        sync.RWMutex
}

// RegistryOption configures the Registry.
type RegistryOption func(*Registry)

// WithAdditionalProperties lets generated schemas accept unknown keys.
func WithAdditionalProperties(allow bool) RegistryOption {
	return func(r *Registry) {
		r.reflector.AllowAdditionalProperties = allow
	}
}

// NewRegistry creates a new schema registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		schemas:   make(map[string]string),
		reflector: new(jsonschema.Reflector),
	}

	r.reflector.ExpandedStruct = true
	r.reflector.Anonymous = true

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a schema for a document kind.
// model can be a Go struct (to generate schema) or a raw JSON schema string/map/bytes.
func (r *Registry) Register(kind string, model any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[kind]; exists {
		return fmt.Errorf("document kind already registered: %s", kind)
	}

	var schemaStr string

	switch v := model.(type) {
	case string:
		schemaStr = v
	case []byte:
		schemaStr = string(v)
	case map[string]any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal schema map: %w", err)
		}
		schemaStr = string(b)
	default:
		t := reflect.TypeOf(model)
		if t == nil || (t.Kind() != reflect.Struct && !(t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct)) {
			return fmt.Errorf("unsupported schema model %T for kind %s", model, kind)
		}

		s := r.reflector.Reflect(model)
		b, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal generated schema: %w", err)
		}
		schemaStr = string(b)
	}

	r.schemas[kind] = schemaStr
	return nil
}

// GetSchema retrieves the JSON Schema for a document kind.
func (r *Registry) GetSchema(kind string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[kind]
	return s, ok
}

// List returns all registered document kinds, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
