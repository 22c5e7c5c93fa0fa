// Package seen tracks which chat message ids have already been handled.
package seen

import "sync"

// Set is a bounded, insertion-ordered set of message ids. Once it holds more
// than max ids the cleanup oldest ones are evicted in one batch. It is safe
// for concurrent use.
type Set struct {
	mu      sync.Mutex
	ids     map[string]struct{}
	order   []string
	max     int
	cleanup int
}

// New creates a Set. Non-positive sizes fall back to 1000 and 200; cleanup is
// clamped to max.
func New(max, cleanup int) *Set {
	if max <= 0 {
		max = 1000
	}
	if cleanup <= 0 {
		cleanup = 200
	}
	cleanup = min(cleanup, max)

	return &Set{
		ids:     make(map[string]struct{}, max+1),
		max:     max,
		cleanup: cleanup,
	}
}

// Mark records id and reports whether it was new. Empty ids are never
// recorded and always report false.
func (s *Set) Mark(id string) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[id]; ok {
		return false
	}

	s.ids[id] = struct{}{}
	s.order = append(s.order, id)

	if len(s.order) > s.max {
		for _, old := range s.order[:s.cleanup] {
			delete(s.ids, old)
		}
		s.order = append(s.order[:0:0], s.order[s.cleanup:]...)
	}

	return true
}

// Has reports whether id is in the set.
func (s *Set) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of ids held.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
