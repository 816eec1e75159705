package correlate

import (
	"sync"
	"time"
)

// SeenSet is the registrars' idempotence guard: a bounded set of opaque
// handles for already-processed elements and resource locators. Entries
// expire with the same sweep that evicts records, so the set never grows
// with page lifetime.
type SeenSet struct {
	mu      sync.Mutex
	clock   Clock
	entries map[string]time.Time
}

// NewSeenSet constructs an empty seen set.
func NewSeenSet(clock Clock) *SeenSet {
	if clock == nil {
		clock = time.Now
	}
	return &SeenSet{clock: clock, entries: make(map[string]time.Time)}
}

// Mark records a handle and reports whether it was seen for the first time.
func (s *SeenSet) Mark(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = s.clock()
	return true
}

// Seen reports whether a handle was already marked.
func (s *SeenSet) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

// Evict drops entries older than maxAge and returns the count.
func (s *SeenSet) Evict(maxAge time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.clock().Add(-maxAge)
	removed := 0
	for key, at := range s.entries {
		if at.Before(cutoff) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of marked handles.
func (s *SeenSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
