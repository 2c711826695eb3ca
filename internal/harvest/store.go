package harvest

import (
	"sort"
	"sync"
)

// Store is the authoritative dedup ledger: per-version sets of names ever
// returned plus per-version request counters. It is the only state mutated
// by concurrent workers and guards everything behind one mutex.
type Store struct {
	mu       sync.Mutex
	seen     map[string]map[string]struct{}
	requests map[string]int64
}

// VersionProgress is a point-in-time count pair for one version, safe to
// read while the run is still in flight.
type VersionProgress struct {
	Names    int64 `json:"names"`
	Requests int64 `json:"requests"`
}

// NewStore creates a Store with an empty ledger for each version.
func NewStore(versions []string) *Store {
	seen := make(map[string]map[string]struct{}, len(versions))
	requests := make(map[string]int64, len(versions))
	for _, v := range versions {
		seen[v] = make(map[string]struct{})
		requests[v] = 0
	}
	return &Store{
		seen:     seen,
		requests: requests,
	}
}

// TryMarkSeen records the name for the version if it was not already
// present. It returns true exactly once per distinct (version, name) pair,
// regardless of concurrency.
func (s *Store) TryMarkSeen(version, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.seen[version]
	if !ok {
		set = make(map[string]struct{})
		s.seen[version] = set
	}
	if _, exists := set[name]; exists {
		return false
	}
	set[name] = struct{}{}
	return true
}

// RecordRequests adds n attempted HTTP calls to the version's counter.
func (s *Store) RecordRequests(version string, n int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[version] += n
}

// Requests returns the current attempt count for a version.
func (s *Store) Requests(version string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[version]
}

// Progress returns live per-version counts for status reporting.
func (s *Store) Progress() map[string]VersionProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]VersionProgress, len(s.seen))
	for version, set := range s.seen {
		out[version] = VersionProgress{
			Names:    int64(len(set)),
			Requests: s.requests[version],
		}
	}
	return out
}

// Snapshot returns the finished ledger with names sorted per version.
// Callers invoke it after the engine reports completion.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Discoveries: make(map[string][]string, len(s.seen)),
		Requests:    make(map[string]int64, len(s.requests)),
	}
	for version, set := range s.seen {
		names := make([]string, 0, len(set))
		for name := range set {
			names = append(names, name)
		}
		sort.Strings(names)
		snap.Discoveries[version] = names
	}
	for version, n := range s.requests {
		snap.Requests[version] = n
	}
	return snap
}
