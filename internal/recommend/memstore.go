package recommend

import (
	"context"
	"strings"
	"sync"
)

// Compile-time assertion that MemStore satisfies the Store interface.
var _ Store = (*MemStore)(nil)

// MemStore is a thread-safe, in-memory implementation of [Store].
// Insertion order is preserved for List. The zero value is ready to use.
type MemStore struct {
	mu      sync.RWMutex
	courses []Course

	cbMu      sync.RWMutex
	callbacks []func([]Course)
}

// NewMemStore returns an initialised [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Add implements [Store.Add].
func (s *MemStore) Add(_ context.Context, c Course) (Course, bool) {
	if c.ID == "" {
		c.ID = "module-" + c.Name
	}

	s.mu.Lock()
	for _, existing := range s.courses {
		if strings.EqualFold(existing.Name, c.Name) {
			s.mu.Unlock()
			return existing, false
		}
	}
	s.courses = append(s.courses, c)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return c, true
}

// Update implements [Store.Update].
func (s *MemStore) Update(_ context.Context, c Course) bool {
	s.mu.Lock()
	idx := s.indexLocked(c.ID)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.courses[idx] = c
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Remove implements [Store.Remove].
func (s *MemStore) Remove(_ context.Context, id string) bool {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.courses = append(s.courses[:idx], s.courses[idx+1:]...)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Get implements [Store.Get].
func (s *MemStore) Get(_ context.Context, id string) (Course, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Course{}, false
	}
	return s.courses[idx], true
}

// List implements [Store.List].
func (s *MemStore) List(_ context.Context) []Course {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Clear implements [Store.Clear].
func (s *MemStore) Clear(_ context.Context) {
	s.mu.Lock()
	s.courses = nil
	s.mu.Unlock()

	s.notify(nil)
}

// OnChange implements [Store.OnChange].
func (s *MemStore) OnChange(fn func([]Course)) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callbacks = append(s.callbacks, fn)
}

// indexLocked returns the position of the course with the given ID, or -1.
// Caller holds s.mu.
func (s *MemStore) indexLocked(id string) int {
	for i, c := range s.courses {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// snapshotLocked copies the course list. Caller holds s.mu.
func (s *MemStore) snapshotLocked() []Course {
	out := make([]Course, len(s.courses))
	copy(out, s.courses)
	return out
}

// notify runs all registered callbacks with the given snapshot. Must be
// called without s.mu held so callbacks can read the store.
func (s *MemStore) notify(snapshot []Course) {
	s.cbMu.RLock()
	cbs := make([]func([]Course), len(s.callbacks))
	copy(cbs, s.callbacks)
	s.cbMu.RUnlock()

	for _, fn := range cbs {
		fn(snapshot)
	}
}
