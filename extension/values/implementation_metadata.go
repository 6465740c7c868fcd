package values

// ImplementationMetadata contains descriptive information about an implementation.
type ImplementationMetadata struct {
	version     string
	description string
}

// NewImplementationMetadata creates implementation metadata.
// An empty version means the implementation is unversioned.
func NewImplementationMetadata(version, description string) ImplementationMetadata {
	return ImplementationMetadata{
		version:     version,
		description: description,
	}
}

// Version returns the semantic version.
func (m ImplementationMetadata) Version() string {
	return m.version
}

// Description returns human-readable description.
func (m ImplementationMetadata) Description() string {
	return m.description
}

// IsVersioned reports whether a version was declared.
func (m ImplementationMetadata) IsVersioned() bool {
	return m.version != ""
}
