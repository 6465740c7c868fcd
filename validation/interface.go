package validation

// DocumentValidator validates parsed documents against registered schemas.
type DocumentValidator interface {
	// Validate checks doc against the schema registered for kind.
	Validate(kind string, doc any) (*ValidationResult, error)
}

// ValidationResult holds the outcome of a validation.
type ValidationResult struct {
	Errors []ValidationIssue
	Valid  bool
}

// ValidationIssue is one schema violation.
type ValidationIssue struct {
	Path    string
	Message string
}
