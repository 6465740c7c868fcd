package universe

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/ports"
	"github.com/reglet-dev/reglet-xtend/extension/resolvers"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// Filter hides disabled implementations and enforces version constraints
// per capability.
type Filter struct {
	resolver    ports.VersionResolver
	logger      *slog.Logger
	disabled    map[string]bool
	constraints map[string]string
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// Disable hides implementations by name.
func Disable(names ...string) FilterOption {
	return func(f *Filter) {
		for _, n := range names {
			f.disabled[n] = true
		}
	}
}

// Constrain requires implementations of a capability to carry a version
// satisfying constraint. The capability is matched by Key, Name or ShortName.
func Constrain(capability, constraint string) FilterOption {
	return func(f *Filter) {
		f.constraints[capability] = constraint
	}
}

// WithVersionResolver overrides the semver resolver.
func WithVersionResolver(r ports.VersionResolver) FilterOption {
	return func(f *Filter) {
		if r != nil {
			f.resolver = r
		}
	}
}

// WithFilterLogger sets the logger.
func WithFilterLogger(logger *slog.Logger) FilterOption {
	return func(f *Filter) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFilter creates a filter. Invalid constraints are rejected.
func NewFilter(opts ...FilterOption) (*Filter, error) {
	f := &Filter{
		resolver:    resolvers.NewSemverResolver(),
		logger:      slog.Default(),
		disabled:    make(map[string]bool),
		constraints: make(map[string]string),
	}
	for _, opt := range opts {
		opt(f)
	}

	for capability, constraint := range f.constraints {
		if _, err := f.resolver.Satisfies(constraint, "0.0.0"); err != nil {
			return nil, fmt.Errorf("capability %q: %w", capability, err)
		}
	}
	return f, nil
}

// Allows reports whether the candidate may answer queries for the capability.
// Unversioned candidates never satisfy a constraint.
func (f *Filter) Allows(capability values.Capability, c *entities.Candidate) bool {
	name := c.Name().String()
	if f.disabled[name] {
		return false
	}

	constraint, ok := f.constraintFor(capability)
	if !ok {
		return true
	}
	version := c.Metadata().Version()
	if version == "" {
		f.logger.Debug("unversioned implementation excluded by constraint",
			"capability", capability.Name(), "implementation", name, "constraint", constraint)
		return false
	}
	satisfied, err := f.resolver.Satisfies(constraint, version)
	if err != nil || !satisfied {
		f.logger.Debug("implementation excluded by constraint",
			"capability", capability.Name(), "implementation", name, "version", version, "constraint", constraint)
		return false
	}
	return true
}

// IsDisabled reports whether the named implementation is hidden.
func (f *Filter) IsDisabled(name string) bool {
	return f.disabled[name]
}

func (f *Filter) constraintFor(capability values.Capability) (string, bool) {
	for _, k := range []string{capability.Key(), capability.Name(), capability.ShortName()} {
		if c, ok := f.constraints[k]; ok {
			return c, true
		}
	}
	return "", false
}

// Wrap returns a universe that applies the filter to u.
func (f *Filter) Wrap(u ports.TypeUniverse) ports.TypeUniverse {
	return &filtered{universe: u, filter: f}
}

type filtered struct {
	universe ports.TypeUniverse
	filter   *Filter
}

func (u *filtered) TypesSatisfying(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	found, err := u.universe.TypesSatisfying(ctx, capability)
	if err != nil {
		return nil, err
	}
	out := found[:0:0]
	for _, c := range found {
		if u.filter.Allows(capability, c) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (u *filtered) Lookup(name string) (*entities.Candidate, bool) {
	if u.filter.IsDisabled(name) {
		return nil, false
	}
	return u.universe.Lookup(name)
}
