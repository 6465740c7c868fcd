package resolvers

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// SemverResolver implements ports.VersionResolver using Masterminds/semver.
type SemverResolver struct{}

// NewSemverResolver creates a new SemverResolver.
func NewSemverResolver() *SemverResolver {
	return &SemverResolver{}
}

// Resolve converts a version constraint to an exact version from the available options.
// It returns the highest version that satisfies the constraint.
func (r *SemverResolver) Resolve(constraint string, available []string) (string, error) {
	c, err := parseConstraint(constraint)
	if err != nil {
		return "", err
	}

	var valid []*semver.Version
	for _, vStr := range available {
		v, err := semver.NewVersion(vStr)
		if err != nil {
			continue // Skip invalid versions in availability list
		}
		if c.Check(v) {
			valid = append(valid, v)
		}
	}

	if len(valid) == 0 {
		return "", fmt.Errorf("no version satisfies constraint %q from available options", constraint)
	}

	// Collection sorts ascending, so the last element is the highest.
	sort.Sort(semver.Collection(valid))
	return valid[len(valid)-1].Original(), nil
}

// Satisfies reports whether version meets constraint. An unparseable
// version never satisfies; an invalid constraint is an error.
func (r *SemverResolver) Satisfies(constraint, version string) (bool, error) {
	if _, err := parseConstraint(constraint); err != nil {
		return false, err
	}
	if _, err := r.Resolve(constraint, []string{version}); err != nil {
		return false, nil
	}
	return true, nil
}

// "latest" is not understood by Masterminds/semver, treat it as any version.
func parseConstraint(constraint string) (*semver.Constraints, error) {
	if constraint == "latest" {
		constraint = ">= 0"
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return nil, fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}
	return c, nil
}
