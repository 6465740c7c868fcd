package entities

import (
	"fmt"
	"sort"
	"time"
)

// Lockfile is an aggregate root recording which implementations were resolved
// for each capability. Loading it at startup pre-registers those
// implementations as known types, so the first query skips the universe scan.
//
// Invariants:
// - Each capability entry names at least one implementation
// - Implementation names are non-empty
// - Generated timestamp must be set when entries exist
type Lockfile struct {
	Generated    time.Time
	Capabilities map[string]CapabilityLock
	Version      int
}

// CapabilityLock is a value object listing the implementations resolved for
// one capability, in scan order. Immutable after creation.
type CapabilityLock struct {
	Resolved        time.Time
	Capability      string
	Implementations []ImplementationLock
}

// ImplementationLock is a value object pinning one implementation.
type ImplementationLock struct {
	Name    string
	Version string
}

// NewLockfile creates a new lockfile with the current version.
func NewLockfile() *Lockfile {
	return &Lockfile{
		Version:      1,
		Generated:    time.Now().UTC(),
		Capabilities: make(map[string]CapabilityLock),
	}
}

// AddCapability adds or replaces the entry for a capability key.
// Returns error if the entry breaks an invariant.
func (l *Lockfile) AddCapability(key string, lock CapabilityLock) error {
	if key == "" {
		return fmt.Errorf("capability key is required")
	}
	if err := lock.validate(key); err != nil {
		return err
	}
	if l.Capabilities == nil {
		l.Capabilities = make(map[string]CapabilityLock)
	}
	l.Capabilities[key] = lock
	return nil
}

// GetCapability retrieves a capability entry by key.
// Returns nil if not found.
func (l *Lockfile) GetCapability(key string) *CapabilityLock {
	if l.Capabilities == nil {
		return nil
	}
	if lock, ok := l.Capabilities[key]; ok {
		return &lock
	}
	return nil
}

// Keys returns the capability keys in sorted order.
func (l *Lockfile) Keys() []string {
	keys := make([]string, 0, len(l.Capabilities))
	for k := range l.Capabilities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks lockfile invariants.
func (l *Lockfile) Validate() error {
	if l.CapabilityCount() > 0 && l.Generated.IsZero() {
		return fmt.Errorf("generated timestamp is required")
	}
	for key, lock := range l.Capabilities {
		if err := lock.validate(key); err != nil {
			return err
		}
	}
	return nil
}

// CapabilityCount returns the number of locked capabilities.
func (l *Lockfile) CapabilityCount() int {
	return len(l.Capabilities)
}

func (c CapabilityLock) validate(key string) error {
	if len(c.Implementations) == 0 {
		return fmt.Errorf("capability %q: at least one implementation is required", key)
	}
	for i, impl := range c.Implementations {
		if impl.Name == "" {
			return fmt.Errorf("capability %q: implementation %d has no name", key, i)
		}
	}
	return nil
}

// Names returns the locked implementation names in order.
func (c CapabilityLock) Names() []string {
	names := make([]string, len(c.Implementations))
	for i, impl := range c.Implementations {
		names[i] = impl.Name
	}
	return names
}
