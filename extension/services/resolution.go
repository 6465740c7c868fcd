package services

import (
	"context"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// CandidateResolutionStrategy defines the interface for candidate resolution.
// Implements Chain of Responsibility pattern.
type CandidateResolutionStrategy interface {
	// Resolve returns the candidates satisfying the capability.
	Resolve(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error)

	// SetNext sets the next resolver in the chain.
	SetNext(next CandidateResolutionStrategy)
}

// BaseResolver provides common chain-of-responsibility logic.
type BaseResolver struct {
	next CandidateResolutionStrategy
}

// SetNext sets the next resolver in chain.
func (b *BaseResolver) SetNext(next CandidateResolutionStrategy) {
	b.next = next
}

// ResolveNext delegates to next resolver in chain.
func (b *BaseResolver) ResolveNext(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	if b.next == nil {
		return nil, entities.NewError(entities.KindNoExtension, capability.Name(), "no implementation registered", nil)
	}
	return b.next.Resolve(ctx, capability)
}
