package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
	"github.com/stretchr/testify/require"
)

type greeter interface {
	Greet() string
}

type english struct {
	name string
}

func (e *english) Greet() string { return "hello " + e.name }

func newCandidate(t *testing.T, name string, opts ...entities.CandidateOption) *entities.Candidate {
	t.Helper()
	if len(opts) == 0 {
		opts = []entities.CandidateOption{
			entities.WithConstructors(entities.Constructor0(func() *english { return &english{} })),
		}
	}
	c, err := entities.NewCandidateFor[*english](name, opts...)
	require.NoError(t, err)
	return c
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingResolver returns a fixed candidate list and counts calls.
type countingResolver struct {
	BaseResolver
	found []*entities.Candidate
	err   error
	calls int
	mu    sync.Mutex
}

func (r *countingResolver) Resolve(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	r.mu.Lock()
	r.calls++
	found, err := r.found, r.err
	r.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return r.ResolveNext(ctx, capability)
	}
	return found, nil
}

func (r *countingResolver) set(found ...*entities.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.found = found
}

func (r *countingResolver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// fakeCatalog records associations and returns a fixed error.
type fakeCatalog struct {
	err     error
	objects []any
	prio    []int
}

func (c *fakeCatalog) AddAssociatedBundle(object any, priority int) (bool, error) {
	c.objects = append(c.objects, object)
	c.prio = append(c.prio, priority)
	if c.err != nil {
		return false, c.err
	}
	return true, nil
}
