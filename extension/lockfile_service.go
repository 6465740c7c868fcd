package extension

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/ports"
	"github.com/reglet-dev/reglet-xtend/extension/services"
)

// LockfileService records resolved capabilities and restores them as known types.
type LockfileService struct {
	repo     ports.LockfileRepository
	universe ports.TypeUniverse
	resolver ports.VersionResolver
	logger   *slog.Logger
}

// NewLockfileService creates a new LockfileService.
func NewLockfileService(
	repo ports.LockfileRepository,
	universe ports.TypeUniverse,
	resolver ports.VersionResolver,
	logger *slog.Logger,
) *LockfileService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LockfileService{
		repo:     repo,
		universe: universe,
		resolver: resolver,
		logger:   logger,
	}
}

// Record builds a lockfile from index entries.
func (s *LockfileService) Record(entries []services.IndexEntry) (*entities.Lockfile, error) {
	lock := entities.NewLockfile()
	for _, e := range entries {
		impls := make([]entities.ImplementationLock, 0, len(e.Candidates))
		for _, c := range e.Candidates {
			impls = append(impls, entities.ImplementationLock{
				Name:    c.Name().String(),
				Version: c.Metadata().Version(),
			})
		}
		if err := lock.AddCapability(e.Capability.Key(), entities.CapabilityLock{
			Capability:      e.Capability.Name(),
			Resolved:        lock.Generated,
			Implementations: impls,
		}); err != nil {
			return nil, err
		}
	}
	return lock, nil
}

// Save records entries and writes them to path. Entries already locked at
// path and absent from entries are kept; invalid ones are dropped with a
// warning.
func (s *LockfileService) Save(ctx context.Context, entries []services.IndexEntry, path string) (*entities.Lockfile, error) {
	lock, err := s.Record(entries)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading lockfile: %w", err)
	}
	if existing != nil {
		for _, key := range existing.Keys() {
			if lock.GetCapability(key) != nil {
				continue
			}
			if err := lock.AddCapability(key, *existing.GetCapability(key)); err != nil {
				s.logger.Warn("dropping invalid locked capability", "path", path, "capability", key, "error", err)
			}
		}
	}

	lock.Generated = time.Now().UTC()
	if err := s.repo.Save(ctx, lock, path); err != nil {
		return nil, fmt.Errorf("saving lockfile: %w", err)
	}

	s.logger.Info("lockfile written", "path", path, "capabilities", lock.CapabilityCount())
	return lock, nil
}

// Load reads the lockfile at path and returns the locked candidates found in
// the universe, each once, in capability key order. A missing lockfile yields
// no candidates. Entries unknown to the universe or whose version no longer
// matches the locked one are skipped with a warning.
func (s *LockfileService) Load(ctx context.Context, path string) ([]*entities.Candidate, error) {
	lock, err := s.repo.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading lockfile: %w", err)
	}
	if lock == nil {
		s.logger.Debug("no lockfile", "path", path)
		return nil, nil
	}
	return s.Candidates(lock), nil
}

// Candidates resolves the implementations named by lock.
func (s *LockfileService) Candidates(lock *entities.Lockfile) []*entities.Candidate {
	seen := make(map[string]bool)
	var out []*entities.Candidate

	for _, key := range lock.Keys() {
		entry := lock.GetCapability(key)
		for _, impl := range entry.Implementations {
			if seen[impl.Name] {
				continue
			}
			seen[impl.Name] = true

			c, ok := s.universe.Lookup(impl.Name)
			if !ok {
				s.logger.Warn("locked implementation not registered", "capability", key, "implementation", impl.Name)
				continue
			}
			if !s.versionMatches(impl, c) {
				s.logger.Warn("locked implementation version changed",
					"implementation", impl.Name,
					"locked", impl.Version,
					"registered", c.Metadata().Version())
				continue
			}
			out = append(out, c)
		}
	}
	return out
}

func (s *LockfileService) versionMatches(impl entities.ImplementationLock, c *entities.Candidate) bool {
	if impl.Version == "" {
		return true
	}
	if s.resolver == nil {
		return impl.Version == c.Metadata().Version()
	}
	ok, err := s.resolver.Satisfies(impl.Version, c.Metadata().Version())
	if err != nil {
		return impl.Version == c.Metadata().Version()
	}
	return ok
}
