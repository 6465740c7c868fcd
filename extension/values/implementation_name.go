package values

import (
	"fmt"
	"strings"
)

// ImplementationName represents a validated implementation identifier.
// It doubles as the message bundle name associated with the implementation.
type ImplementationName struct {
	value string
}

// NewImplementationName creates an ImplementationName with strict validation.
// A valid name must:
// - Be non-empty
// - contain only alphanumeric characters, underscores, hyphens and dots
// - NOT start or end with a dot, or contain ".."
// - NOT contain path separators
// - Be at most 128 characters long
func NewImplementationName(name string) (ImplementationName, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ImplementationName{}, fmt.Errorf("implementation name cannot be empty")
	}

	if len(name) > 128 {
		return ImplementationName{}, fmt.Errorf("implementation name too long (max 128 chars)")
	}

	if strings.ContainsAny(name, `/\`) {
		return ImplementationName{}, fmt.Errorf("implementation name cannot contain path separators")
	}

	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return ImplementationName{}, fmt.Errorf("implementation name %q has misplaced dots", name)
	}

	for _, ch := range name {
		if !isValidNameChar(ch) {
			return ImplementationName{}, fmt.Errorf("invalid implementation name %q: must contain only alphanumeric characters, underscores, hyphens and dots", name)
		}
	}

	return ImplementationName{value: name}, nil
}

func isValidNameChar(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r >= '0' && r <= '9') ||
		r == '_' ||
		r == '-' ||
		r == '.'
}

// MustNewImplementationName creates an ImplementationName or panics
func MustNewImplementationName(name string) ImplementationName {
	n, err := NewImplementationName(name)
	if err != nil {
		panic(err)
	}
	return n
}

// String returns the string representation
func (n ImplementationName) String() string {
	return n.value
}

// IsEmpty returns true if this is the zero value
func (n ImplementationName) IsEmpty() bool {
	return n.value == ""
}

// Equals checks if two implementation names are equal
func (n ImplementationName) Equals(other ImplementationName) bool {
	return n.value == other.value
}
