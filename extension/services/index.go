package services

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// Index maps capabilities to the candidate types that satisfy them and
// caches the answer per capability. Lookups of the same capability are
// serialized; different capabilities proceed concurrently.
type Index struct {
	lookup  CandidateResolutionStrategy
	scan    CandidateResolutionStrategy
	logger  *slog.Logger
	entries map[string]IndexEntry
	locks   map[string]*sync.Mutex
	mu      sync.Mutex
}

// IndexEntry is one cached capability and its resolved candidates.
type IndexEntry struct {
	Capability values.Capability
	Candidates []*entities.Candidate
}

// IndexOption configures an Index.
type IndexOption func(*Index)

// WithIndexLogger sets the logger used for cache and scan events.
func WithIndexLogger(logger *slog.Logger) IndexOption {
	return func(x *Index) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// NewIndex creates an index. lookup is consulted on a cache miss and usually
// chains the known types before the universe; scan is used on forced reload
// and must go straight to the universe.
func NewIndex(lookup, scan CandidateResolutionStrategy, opts ...IndexOption) *Index {
	x := &Index{
		lookup:  lookup,
		scan:    scan,
		logger:  slog.Default(),
		entries: make(map[string]IndexEntry),
		locks:   make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// FindTypes returns the concrete candidates satisfying the capability.
// It fails with entities.ErrNoExtension when none remain after abstract
// candidates are dropped.
func (x *Index) FindTypes(ctx context.Context, capability values.Capability, forcedReload bool) ([]*entities.Candidate, error) {
	if capability.IsZero() {
		return nil, entities.NewError(entities.KindExtensionError, "", "capability is required", nil)
	}
	key := capability.Key()

	lock := x.lockFor(key)
	lock.Lock()
	defer lock.Unlock()

	if !forcedReload {
		if entry, ok := x.cached(key); ok {
			x.logger.Debug("capability cache hit", "capability", capability.Name(), "candidates", len(entry.Candidates))
			return clone(entry.Candidates), nil
		}
	}

	strategy := x.lookup
	if forcedReload {
		x.logger.Info("forced reload, rescanning universe", "capability", capability.Name())
		strategy = x.scan
	}
	if strategy == nil {
		return nil, entities.NewError(entities.KindNoExtension, capability.Name(), "no resolver configured", nil)
	}

	found, err := strategy.Resolve(ctx, capability)
	if err != nil {
		return nil, err
	}

	concrete := make([]*entities.Candidate, 0, len(found))
	for _, c := range found {
		if c != nil && !c.IsAbstract() {
			concrete = append(concrete, c)
		}
	}
	if len(concrete) == 0 {
		return nil, entities.NewError(entities.KindNoExtension, capability.Name(), "only abstract implementations found", nil)
	}

	x.mu.Lock()
	x.entries[key] = IndexEntry{Capability: capability, Candidates: concrete}
	x.mu.Unlock()

	x.logger.Debug("capability resolved", "capability", capability.Name(), "candidates", len(concrete))
	return clone(concrete), nil
}

// Cached returns the cached candidates for a capability without resolving.
func (x *Index) Cached(capability values.Capability) ([]*entities.Candidate, bool) {
	entry, ok := x.cached(capability.Key())
	if !ok {
		return nil, false
	}
	return clone(entry.Candidates), true
}

// Snapshot returns every cached entry ordered by capability key.
func (x *Index) Snapshot() []IndexEntry {
	x.mu.Lock()
	defer x.mu.Unlock()

	keys := make([]string, 0, len(x.entries))
	for k := range x.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]IndexEntry, 0, len(keys))
	for _, k := range keys {
		e := x.entries[k]
		out = append(out, IndexEntry{Capability: e.Capability, Candidates: clone(e.Candidates)})
	}
	return out
}

// Reset drops every cached entry.
func (x *Index) Reset() {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.entries = make(map[string]IndexEntry)
}

func (x *Index) cached(key string) (IndexEntry, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()
	entry, ok := x.entries[key]
	return entry, ok
}

func (x *Index) lockFor(key string) *sync.Mutex {
	x.mu.Lock()
	defer x.mu.Unlock()
	l, ok := x.locks[key]
	if !ok {
		l = &sync.Mutex{}
		x.locks[key] = l
	}
	return l
}

func clone(in []*entities.Candidate) []*entities.Candidate {
	return append([]*entities.Candidate(nil), in...)
}
