package resolvers

import (
	"context"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/services"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// AllowFunc reports whether a candidate may answer queries for a capability.
type AllowFunc func(capability values.Capability, c *entities.Candidate) bool

// KnownTypesResolver answers from the pre-registered known types.
type KnownTypesResolver struct {
	services.BaseResolver
	known *services.KnownTypes
	allow AllowFunc
}

// KnownTypesOption configures a KnownTypesResolver.
type KnownTypesOption func(*KnownTypesResolver)

// WithAllow drops known candidates rejected by allow, such as those hidden
// by a universe filter.
func WithAllow(allow AllowFunc) KnownTypesOption {
	return func(r *KnownTypesResolver) {
		r.allow = allow
	}
}

// NewKnownTypesResolver creates a known types resolver.
func NewKnownTypesResolver(known *services.KnownTypes, opts ...KnownTypesOption) *KnownTypesResolver {
	r := &KnownTypesResolver{
		known: known,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the concrete, allowed known types satisfying the
// capability, otherwise delegates to next.
func (r *KnownTypesResolver) Resolve(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	if r.known != nil {
		var found []*entities.Candidate
		for _, c := range r.known.Satisfying(capability) {
			if c.IsAbstract() {
				continue
			}
			if r.allow != nil && !r.allow(capability, c) {
				continue
			}
			found = append(found, c)
		}
		if len(found) > 0 {
			return found, nil
		}
	}

	// Nothing usable pre-registered, try next resolver
	return r.ResolveNext(ctx, capability)
}
