package resolvers

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/ports"
	"github.com/reglet-dev/reglet-xtend/extension/services"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// UniverseResolver scans the type universe.
type UniverseResolver struct {
	services.BaseResolver
	universe ports.TypeUniverse
	logger   *slog.Logger
}

// NewUniverseResolver creates a universe resolver.
func NewUniverseResolver(universe ports.TypeUniverse, logger *slog.Logger) *UniverseResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &UniverseResolver{
		universe: universe,
		logger:   logger,
	}
}

// Resolve scans the universe. An empty scan delegates to next.
func (r *UniverseResolver) Resolve(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	r.logger.Debug("scanning type universe", "capability", capability.Name())

	found, err := r.universe.TypesSatisfying(ctx, capability)
	if err != nil {
		return nil, entities.AsExtensionError(capability.Name(), "universe scan failed", err)
	}
	if len(found) == 0 {
		return r.ResolveNext(ctx, capability)
	}

	r.logger.Debug("universe scan complete", "capability", capability.Name(), "found", len(found))
	return found, nil
}
