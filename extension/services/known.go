package services

import (
	"sync"

	"github.com/reglet-dev/reglet-xtend/extension/entities"
	"github.com/reglet-dev/reglet-xtend/extension/values"
)

// KnownTypes holds candidates pre-registered at process start, in
// registration order. Scan results are never added here.
type KnownTypes struct {
	byName map[string]int
	list   []*entities.Candidate
	mu     sync.RWMutex
}

// NewKnownTypes creates a known set seeded with candidates.
func NewKnownTypes(candidates ...*entities.Candidate) *KnownTypes {
	k := &KnownTypes{byName: make(map[string]int)}
	k.Add(candidates...)
	return k
}

// Add pre-registers candidates. A candidate whose name is already known
// replaces the earlier entry in place.
func (k *KnownTypes) Add(candidates ...*entities.Candidate) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, c := range candidates {
		if c == nil {
			continue
		}
		name := c.Name().String()
		if i, ok := k.byName[name]; ok {
			k.list[i] = c
			continue
		}
		k.byName[name] = len(k.list)
		k.list = append(k.list, c)
	}
}

// Lookup finds a known candidate by implementation name.
func (k *KnownTypes) Lookup(name string) (*entities.Candidate, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()

	i, ok := k.byName[name]
	if !ok {
		return nil, false
	}
	return k.list[i], true
}

// Satisfying returns the known candidates satisfying the capability.
func (k *KnownTypes) Satisfying(capability values.Capability) []*entities.Candidate {
	k.mu.RLock()
	defer k.mu.RUnlock()

	var out []*entities.Candidate
	for _, c := range k.list {
		if c.Satisfies(capability) {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of known candidates.
func (k *KnownTypes) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.list)
}

// Clear forgets every known candidate.
func (k *KnownTypes) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.byName = make(map[string]int)
	k.list = nil
}
