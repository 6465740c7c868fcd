package extension

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/services"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// MockResolver implements CandidateResolutionStrategy for testing
type MockResolver struct {
	services.BaseResolver
	Err    error
	Found  []*entities.Candidate
	Called bool
}

func (m *MockResolver) Resolve(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	m.Called = true
	if m.Err != nil {
		return nil, m.Err
	}
	if len(m.Found) > 0 {
		return m.Found, nil
	}
	return m.ResolveNext(ctx, capability)
}

func (m *MockResolver) SetNext(next services.CandidateResolutionStrategy) {
	m.BaseResolver.SetNext(next)
}

// MockUniverse implements ports.TypeUniverse over a fixed candidate list.
type MockUniverse struct {
	ScanErr    error
	Candidates []*entities.Candidate
	Scans      int
	mu         sync.Mutex
}

func (m *MockUniverse) TypesSatisfying(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Scans++
	if m.ScanErr != nil {
		return nil, m.ScanErr
	}
	var out []*entities.Candidate
	for _, c := range m.Candidates {
		if c.Satisfies(capability) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MockUniverse) Lookup(name string) (*entities.Candidate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range m.Candidates {
		if c.Name().String() == name {
			return c, true
		}
	}
	return nil, false
}

// Add appends candidates, visible to the next scan.
func (m *MockUniverse) Add(candidates ...*entities.Candidate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Candidates = append(m.Candidates, candidates...)
}

// ScanCount returns how many scans ran.
func (m *MockUniverse) ScanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Scans
}

// MockCatalog implements ports.Catalog
type MockCatalog struct {
	Err     error
	Objects []any
	mu      sync.Mutex
}

func (m *MockCatalog) AddAssociatedBundle(object any, priority int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Objects = append(m.Objects, object)
	if m.Err != nil {
		return false, m.Err
	}
	return true, nil
}

func NewTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
