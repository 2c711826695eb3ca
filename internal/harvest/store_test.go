package harvest

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestStoreTryMarkSeen(t *testing.T) {
	t.Parallel()

	s := NewStore([]string{"v1", "v2"})

	if !s.TryMarkSeen("v1", "apple") {
		t.Fatal("first TryMarkSeen should return true")
	}
	if s.TryMarkSeen("v1", "apple") {
		t.Fatal("second TryMarkSeen for the same pair should return false")
	}
	// Versions are independent universes.
	if !s.TryMarkSeen("v2", "apple") {
		t.Fatal("same name under another version should be fresh")
	}
}

func TestStoreTryMarkSeenConcurrent(t *testing.T) {
	t.Parallel()

	s := NewStore([]string{"v1"})

	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.TryMarkSeen("v1", "apple") {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := wins.Load(); got != 1 {
		t.Fatalf("TryMarkSeen won %d times, want exactly 1", got)
	}
}

func TestStoreRequestCounters(t *testing.T) {
	t.Parallel()

	s := NewStore([]string{"v1", "v2"})
	s.RecordRequests("v1", 1)
	s.RecordRequests("v1", 2)
	s.RecordRequests("v2", 5)

	if got := s.Requests("v1"); got != 3 {
		t.Fatalf("Requests(v1) = %d, want 3", got)
	}
	if got := s.Requests("v2"); got != 5 {
		t.Fatalf("Requests(v2) = %d, want 5", got)
	}
}

func TestStoreProgress(t *testing.T) {
	t.Parallel()

	s := NewStore([]string{"v1", "v2"})
	s.TryMarkSeen("v1", "apple")
	s.TryMarkSeen("v1", "ant")
	s.RecordRequests("v1", 4)

	progress := s.Progress()
	if got := progress["v1"]; got.Names != 2 || got.Requests != 4 {
		t.Fatalf("Progress(v1) = %+v, want {Names:2 Requests:4}", got)
	}
	if got := progress["v2"]; got.Names != 0 || got.Requests != 0 {
		t.Fatalf("Progress(v2) = %+v, want zero counts", got)
	}
}

func TestStoreSnapshotSorted(t *testing.T) {
	t.Parallel()

	s := NewStore([]string{"v1"})
	for _, name := range []string{"cherry", "apple", "banana"} {
		s.TryMarkSeen("v1", name)
	}
	s.RecordRequests("v1", 7)

	snap := s.Snapshot()
	want := []string{"apple", "banana", "cherry"}
	got := snap.Discoveries["v1"]
	if len(got) != len(want) {
		t.Fatalf("Snapshot names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Snapshot names = %v, want %v", got, want)
		}
	}
	if snap.Requests["v1"] != 7 {
		t.Fatalf("Snapshot requests = %d, want 7", snap.Requests["v1"])
	}
	if snap.TotalNames() != 3 {
		t.Fatalf("TotalNames() = %d, want 3", snap.TotalNames())
	}
	if snap.TotalRequests() != 7 {
		t.Fatalf("TotalRequests() = %d, want 7", snap.TotalRequests())
	}
}
