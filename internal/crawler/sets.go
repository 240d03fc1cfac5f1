package crawler

import (
	"slices"
	"sync"
)

// VisitedSet records result items already scheduled for download.
// It is shared by every page and query of a run and is safe for
// concurrent use.
type VisitedSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{seen: make(map[string]struct{})}
}

// Add inserts id if absent. It returns true only for the call that
// inserted it.
func (s *VisitedSet) Add(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Len returns the number of identities added.
func (s *VisitedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.seen)
}

// FoundDomainSet is the append-only set of normalized domains discovered
// during a run. It is safe for concurrent use.
//
// Callers are expected to insert normalized domains (see pattern.Normalize);
// the set itself compares strings exactly.
type FoundDomainSet struct {
	mu      sync.Mutex
	domains map[string]struct{}
}

// NewFoundDomainSet creates an empty FoundDomainSet.
func NewFoundDomainSet() *FoundDomainSet {
	return &FoundDomainSet{domains: make(map[string]struct{})}
}

// Add inserts domain if absent and reports whether it was new.
// Empty strings are ignored.
func (s *FoundDomainSet) Add(domain string) bool {
	if domain == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.domains[domain]; ok {
		return false
	}
	s.domains[domain] = struct{}{}
	return true
}

// Len returns the number of domains found.
func (s *FoundDomainSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.domains)
}

// Sorted returns the domains in lexicographic order.
func (s *FoundDomainSet) Sorted() []string {
	s.mu.Lock()
	out := make([]string, 0, len(s.domains))
	for d := range s.domains {
		out = append(out, d)
	}
	s.mu.Unlock()

	slices.Sort(out)
	return out
}
