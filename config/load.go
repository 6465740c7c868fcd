package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/reglet-dev/reglet-xtend/parser"
	"github.com/reglet-dev/reglet-xtend/registry"
	"github.com/reglet-dev/reglet-xtend/validation"
)

// DocumentKind is the schema registry key of the configuration document.
const DocumentKind = "xtend-config"

// ValidationError reports schema violations in a configuration document.
type ValidationError struct {
	Issues []validation.ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.Path + ": " + issue.Message
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Loader reads configuration files through the parse, validate, decode and
// default pipeline.
type Loader struct {
	registry  registry.SchemaRegistry
	validator validation.DocumentValidator
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSchemaRegistry uses r to hold the configuration schema.
func WithSchemaRegistry(r registry.SchemaRegistry) LoaderOption {
	return func(l *Loader) {
		if r != nil {
			l.registry = r
		}
	}
}

// WithValidator overrides the document validator.
func WithValidator(v validation.DocumentValidator) LoaderOption {
	return func(l *Loader) {
		if v != nil {
			l.validator = v
		}
	}
}

// NewLoader creates a loader and registers the configuration schema.
func NewLoader(opts ...LoaderOption) (*Loader, error) {
	l := &Loader{
		registry: registry.NewRegistry(),
	}
	for _, opt := range opts {
		opt(l)
	}

	if _, ok := l.registry.GetSchema(DocumentKind); !ok {
		if err := l.registry.Register(DocumentKind, &Config{}); err != nil {
			return nil, fmt.Errorf("registering configuration schema: %w", err)
		}
	}
	if l.validator == nil {
		l.validator = validation.NewSchemaValidator(l.registry)
	}
	return l, nil
}

// Load reads the file at path. The format follows the file extension.
func (l *Loader) Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}
	cfg, err := l.Parse(data, parser.ForPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data with p, validates it and applies defaults.
func (l *Loader) Parse(data []byte, p parser.DocumentParser) (*Config, error) {
	doc, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	res, err := l.validator.Validate(DocumentKind, doc)
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return nil, &ValidationError{Issues: res.Errors}
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding configuration: %w", err)
	}
	cfg := &Config{}
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	cfg.applyDefaults()
	if _, err := cfg.CatalogPolicy(); err != nil {
		return nil, err
	}
	if _, err := cfg.Locale(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a configuration file with a default loader.
func Load(path string) (*Config, error) {
	l, err := NewLoader()
	if err != nil {
		return nil, err
	}
	return l.Load(path)
}
