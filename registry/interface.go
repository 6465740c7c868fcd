package registry

// SchemaRegistry manages JSON schemas for configuration document kinds.
type SchemaRegistry interface {
	// Register adds a schema for a document kind (e.g. "config").
	// model can be a struct (to generate schema) or a JSON schema string/map/bytes.
	Register(kind string, model any) error

	// GetSchema returns the JSON schema for a document kind.
	GetSchema(kind string) (string, bool)

	// List returns all registered document kinds.
	List() []string
}
