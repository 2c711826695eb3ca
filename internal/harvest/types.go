// Package harvest implements the autocomplete discovery engine: the work
// queue, the bounded worker pool, the retry/backoff policy, and the
// per-version discovery ledger.
package harvest

import (
	"context"
)

// Task is one unit of pending exploration work. It is immutable once
// created and consumed exactly once by the worker pool.
type Task struct {
	// Version selects the API universe the query runs against.
	Version string
	// Query is the prefix submitted to the autocomplete endpoint.
	Query string
	// Depth counts expansion hops from the seed character.
	Depth int
}

// Fetcher issues one autocomplete request for a (version, query) pair and
// returns the names the endpoint offered.
type Fetcher interface {
	Fetch(ctx context.Context, version, query string) ([]string, error)
}

// Snapshot is the finished view of a discovery run, read only after the
// engine reports completion.
type Snapshot struct {
	// Discoveries maps version to its unique names in lexicographic order.
	Discoveries map[string][]string
	// Requests maps version to the number of attempted HTTP calls,
	// retries included.
	Requests map[string]int64
}

// TotalNames sums discoveries across all versions.
func (s Snapshot) TotalNames() int {
	total := 0
	for _, names := range s.Discoveries {
		total += len(names)
	}
	return total
}

// TotalRequests sums attempted calls across all versions.
func (s Snapshot) TotalRequests() int64 {
	var total int64
	for _, n := range s.Requests {
		total += n
	}
	return total
}
