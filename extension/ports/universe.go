package ports

import (
	"context"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// TypeUniverse enumerates the implementations available to the process.
type TypeUniverse interface {
	// TypesSatisfying returns every registered candidate, abstract ones
	// included, that satisfies the capability. Order is registration order.
	TypesSatisfying(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error)

	// Lookup finds a candidate by implementation name.
	Lookup(name string) (*entities.Candidate, bool)
}
