// Package xtend resolves implementations of declared capabilities,
// builds them and wires container extensions to their sub-implementations.
package xtend

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/reglet-dev/reglet-xtend/catalog"
	"github.com/reglet-dev/reglet-xtend/config"
	"github.com/reglet-dev/reglet-xtend/extension"
	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/filesystem"
	"github.com/reglet-dev/reglet-xtend/extension/ports"
	"github.com/reglet-dev/reglet-xtend/extension/resolvers"
	"github.com/reglet-dev/reglet-xtend/extension/services"
	"github.com/reglet-dev/reglet-xtend/universe"
)

// Manager is the extension registry. It owns the candidate cache, the
// named instance slots and the instance builder. A Manager is safe for
// concurrent use.
type Manager struct {
	universe  ports.TypeUniverse
	filter    *universe.Filter
	known     *services.KnownTypes
	index     *services.Index
	builder   *services.Builder
	slots     *InstanceSlots
	lockfiles *extension.LockfileService
	logger    *slog.Logger
	lockPath  string
	closed    atomic.Bool
}

type managerConfig struct {
	universe   ports.TypeUniverse
	catalog    ports.Catalog
	filter     *universe.Filter
	repo       ports.LockfileRepository
	logger     *slog.Logger
	err        error
	lockPath   string
	known      []*entities.Candidate
	middleware []Middleware
	priority   int
	policy     services.CatalogPolicy
	noCatalog  bool
}

// Option configures a Manager.
type Option func(*managerConfig)

// WithUniverse sets the type universe scanned for candidates.
// The default is universe.Default.
func WithUniverse(u ports.TypeUniverse) Option {
	return func(c *managerConfig) {
		c.universe = u
	}
}

// WithFilter hides implementations rejected by f from the universe.
func WithFilter(f *universe.Filter) Option {
	return func(c *managerConfig) {
		c.filter = f
	}
}

// WithCatalog sets the message catalog offered every built instance.
// A nil catalog disables association.
func WithCatalog(cat ports.Catalog) Option {
	return func(c *managerConfig) {
		c.catalog = cat
		c.noCatalog = cat == nil
	}
}

// WithCatalogPolicy sets what happens when catalog association fails.
func WithCatalogPolicy(p services.CatalogPolicy) Option {
	return func(c *managerConfig) {
		c.policy = p
	}
}

// WithCatalogPriority sets the bundle priority used for association.
func WithCatalogPriority(priority int) Option {
	return func(c *managerConfig) {
		c.priority = priority
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *managerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMiddleware appends construction middleware. The first one given is
// the outermost.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *managerConfig) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithKnownTypes pre-registers candidates consulted before the universe.
func WithKnownTypes(candidates ...*entities.Candidate) Option {
	return func(c *managerConfig) {
		c.known = append(c.known, candidates...)
	}
}

// WithLockfile sets the lockfile path used by PreloadLockfile and SaveLockfile.
func WithLockfile(path string) Option {
	return func(c *managerConfig) {
		c.lockPath = path
	}
}

// WithLockfileRepository replaces the file based lockfile repository.
func WithLockfileRepository(repo ports.LockfileRepository) Option {
	return func(c *managerConfig) {
		c.repo = repo
	}
}

// WithConfig applies a loaded configuration: logger, catalog, catalog
// policy and priority, universe filter and lockfile path. Options given
// after it override what it sets.
func WithConfig(cfg *config.Config) Option {
	return func(c *managerConfig) {
		if cfg == nil {
			return
		}
		logger := cfg.Logger(os.Stderr)

		policy, err := cfg.CatalogPolicy()
		if err != nil {
			c.err = fmt.Errorf("applying config: %w", err)
			return
		}
		cat, err := cfg.NewCatalog(logger)
		if err != nil {
			c.err = fmt.Errorf("applying config: %w", err)
			return
		}
		filter, err := cfg.NewFilter(logger)
		if err != nil {
			c.err = fmt.Errorf("applying config: %w", err)
			return
		}

		c.logger = logger
		c.catalog = cat
		c.noCatalog = false
		c.policy = policy
		c.priority = cfg.Catalog.Priority
		c.filter = filter
		c.lockPath = cfg.Lockfile
	}
}

// NewManager creates a Manager. Without options it scans universe.Default
// and associates instances with an empty catalog.
func NewManager(opts ...Option) (*Manager, error) {
	c := &managerConfig{
		universe: universe.Default,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.err != nil {
		return nil, c.err
	}
	if c.universe == nil {
		return nil, fmt.Errorf("universe is required")
	}

	u := c.universe
	if c.filter != nil {
		u = c.filter.Wrap(u)
	}
	if c.catalog == nil && !c.noCatalog {
		c.catalog = catalog.New(catalog.WithLogger(c.logger))
	}
	if c.repo == nil {
		c.repo = filesystem.NewFileLockfileRepository()
	}

	known := services.NewKnownTypes(c.known...)
	var knownOpts []resolvers.KnownTypesOption
	if c.filter != nil {
		knownOpts = append(knownOpts, resolvers.WithAllow(c.filter.Allows))
	}
	lookup := resolvers.NewKnownTypesResolver(known, knownOpts...)
	lookup.SetNext(resolvers.NewUniverseResolver(u, c.logger))

	builderOpts := []services.BuilderOption{
		services.WithCatalogPolicy(c.policy),
		services.WithCatalogPriority(c.priority),
		services.WithBuilderLogger(c.logger),
	}
	if c.catalog != nil {
		builderOpts = append(builderOpts, services.WithCatalog(c.catalog))
	}
	for _, mw := range c.middleware {
		builderOpts = append(builderOpts, services.WithMiddleware(mw))
	}

	m := &Manager{
		universe: u,
		filter:   c.filter,
		known:    known,
		index: services.NewIndex(lookup, resolvers.NewUniverseResolver(u, c.logger),
			services.WithIndexLogger(c.logger)),
		builder:   services.NewBuilder(builderOpts...),
		slots:     NewInstanceSlots(),
		lockfiles: extension.NewLockfileService(c.repo, u, resolvers.NewSemverResolver(), c.logger),
		logger:    c.logger,
		lockPath:  c.lockPath,
	}
	m.logger.Debug("extension manager created", "known_types", known.Len(), "policy", c.policy.String())
	return m, nil
}

// Close drops every cache. Operations on a closed Manager fail.
func (m *Manager) Close() error {
	if m.closed.Swap(true) {
		return nil
	}
	m.index.Reset()
	m.known.Clear()
	m.slots.Clear()
	m.logger.Debug("extension manager closed")
	return nil
}

func (m *Manager) checkOpen() error {
	if m.closed.Load() {
		return entities.NewError(entities.KindExtensionError, "", "manager closed", nil)
	}
	return nil
}

// Preload adds candidates to the known types. They answer later lookups
// of every capability they satisfy that is not cached yet, unless the
// universe filter rejects them.
func (m *Manager) Preload(candidates ...*entities.Candidate) error {
	if err := m.checkOpen(); err != nil {
		return err
	}
	m.known.Add(candidates...)
	return nil
}

// PreloadLockfile adds the implementations recorded in the configured
// lockfile to the known types and returns how many were added.
func (m *Manager) PreloadLockfile(ctx context.Context) (int, error) {
	if err := m.checkOpen(); err != nil {
		return 0, err
	}
	if m.lockPath == "" {
		return 0, fmt.Errorf("no lockfile configured")
	}
	candidates, err := m.lockfiles.Load(ctx, m.lockPath)
	if err != nil {
		return 0, err
	}
	m.known.Add(candidates...)
	m.logger.Info("lockfile preloaded", "path", m.lockPath, "implementations", len(candidates))
	return len(candidates), nil
}

// SaveLockfile records every cached capability to the configured lockfile.
func (m *Manager) SaveLockfile(ctx context.Context) (*entities.Lockfile, error) {
	if err := m.checkOpen(); err != nil {
		return nil, err
	}
	if m.lockPath == "" {
		return nil, fmt.Errorf("no lockfile configured")
	}
	return m.lockfiles.Save(ctx, m.index.Snapshot(), m.lockPath)
}

// Snapshot returns the cached capabilities and their candidates.
func (m *Manager) Snapshot() []services.IndexEntry {
	return m.index.Snapshot()
}
