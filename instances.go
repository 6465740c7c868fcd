package xtend

import "sync"

// InstanceSlots maps references to instances. The last write wins.
type InstanceSlots struct {
	slots map[string]any
	mu    sync.RWMutex
}

// NewInstanceSlots creates empty slots.
func NewInstanceSlots() *InstanceSlots {
	return &InstanceSlots{slots: make(map[string]any)}
}

// Get returns the instance stored under ref, or nil.
func (s *InstanceSlots) Get(ref string) any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[ref]
}

// Set stores instance under ref, replacing any previous one.
func (s *InstanceSlots) Set(ref string, instance any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[ref] = instance
}

// Len returns the number of slots.
func (s *InstanceSlots) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Clear empties every slot.
func (s *InstanceSlots) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = make(map[string]any)
}
