// Package universe holds the registration table of extension implementations
// available to the process.
package universe

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// Module groups registrations contributed by one package.
type Module interface {
	Register(t *Table) error
}

// Table is an explicit registration table. Scan order is registration order.
type Table struct {
	byName map[string]int
	logger *slog.Logger
	list   []*entities.Candidate
	mu     sync.RWMutex
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TableOption {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTable creates an empty table.
func NewTable(opts ...TableOption) *Table {
	t := &Table{
		byName: make(map[string]int),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Default is the process-wide table populated from init functions.
var Default = NewTable()

// Register adds candidates to the Default table.
func Register(candidates ...*entities.Candidate) error {
	return Default.Register(candidates...)
}

// MustRegister adds candidates to the Default table or panics.
func MustRegister(candidates ...*entities.Candidate) {
	Default.MustRegister(candidates...)
}

// Register adds candidates. Names must be unique within the table; on a
// duplicate nothing from this call is added.
func (t *Table) Register(candidates ...*entities.Candidate) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	batch := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if c == nil {
			return fmt.Errorf("cannot register nil candidate")
		}
		name := c.Name().String()
		if _, exists := t.byName[name]; exists || batch[name] {
			return fmt.Errorf("implementation %q already registered", name)
		}
		batch[name] = true
	}

	for _, c := range candidates {
		t.byName[c.Name().String()] = len(t.list)
		t.list = append(t.list, c)
		t.logger.Debug("registered implementation", "name", c.Name().String(), "type", c.Type().String())
	}
	return nil
}

// MustRegister adds candidates or panics.
func (t *Table) MustRegister(candidates ...*entities.Candidate) {
	if err := t.Register(candidates...); err != nil {
		panic(err)
	}
}

// Unregister removes a candidate by name, keeping the order of the rest.
func (t *Table) Unregister(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i, ok := t.byName[name]
	if !ok {
		return false
	}
	t.list = append(t.list[:i], t.list[i+1:]...)
	delete(t.byName, name)
	for j := i; j < len(t.list); j++ {
		t.byName[t.list[j].Name().String()] = j
	}
	return true
}

// Install registers every module in order and stops at the first failure.
func (t *Table) Install(mods ...Module) error {
	for _, m := range mods {
		if err := m.Register(t); err != nil {
			return fmt.Errorf("installing module %T: %w", m, err)
		}
	}
	return nil
}

// Lookup finds a candidate by implementation name.
func (t *Table) Lookup(name string) (*entities.Candidate, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	i, ok := t.byName[name]
	if !ok {
		return nil, false
	}
	return t.list[i], true
}

// All returns every registered candidate in registration order.
func (t *Table) All() []*entities.Candidate {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*entities.Candidate(nil), t.list...)
}

// Len returns the number of registered candidates.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.list)
}

// TypesSatisfying returns registered candidates satisfying the capability,
// abstract ones included.
func (t *Table) TypesSatisfying(ctx context.Context, capability values.Capability) ([]*entities.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []*entities.Candidate
	for _, c := range t.list {
		if c.Satisfies(capability) {
			out = append(out, c)
		}
	}
	return out, nil
}
