package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/namehound/namehound/internal/harvest"
)

func sampleSnapshot() harvest.Snapshot {
	return harvest.Snapshot{
		Discoveries: map[string][]string{
			"v1": {"ant", "apple"},
			"v2": {"anchor"},
		},
		Requests: map[string]int64{
			"v1": 4,
			"v2": 2,
		},
	}
}

func TestWriteText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteText(&buf, []string{"v1", "v2"}, sampleSnapshot()); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, "3 unique names discovered across 2 API versions in 6 requests\n") {
		t.Fatalf("unexpected summary line:\n%s", out)
	}
	if !strings.Contains(out, "\n--- v1 --- (2 names, 4 requests)\nant\napple\n") {
		t.Fatalf("missing v1 section:\n%s", out)
	}
	if !strings.Contains(out, "\n--- v2 --- (1 names, 2 requests)\nanchor\n") {
		t.Fatalf("missing v2 section:\n%s", out)
	}
	// Sections follow the configured version order.
	if strings.Index(out, "--- v1 ---") > strings.Index(out, "--- v2 ---") {
		t.Fatalf("sections out of order:\n%s", out)
	}
}

func TestWriteTextEmptyVersion(t *testing.T) {
	t.Parallel()

	snap := harvest.Snapshot{
		Discoveries: map[string][]string{"v1": {}},
		Requests:    map[string]int64{"v1": 26},
	}

	var buf bytes.Buffer
	if err := WriteText(&buf, []string{"v1"}, snap); err != nil {
		t.Fatalf("WriteText() error = %v", err)
	}
	if !strings.Contains(buf.String(), "--- v1 --- (0 names, 26 requests)") {
		t.Fatalf("missing empty section header:\n%s", buf.String())
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	doc := NewDocument("run-123", ts, []string{"v1", "v2"}, sampleSnapshot())

	var buf bytes.Buffer
	if err := WriteJSON(&buf, doc); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var decoded Document
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if decoded.Metadata.RunID != "run-123" {
		t.Fatalf("run_id = %q", decoded.Metadata.RunID)
	}
	if !decoded.Metadata.Timestamp.Equal(ts) {
		t.Fatalf("timestamp = %v, want %v", decoded.Metadata.Timestamp, ts)
	}
	if decoded.Metadata.TotalRequests != 6 {
		t.Fatalf("total_requests = %d, want 6", decoded.Metadata.TotalRequests)
	}
	if decoded.Metadata.RequestMetrics["v1"] != 4 || decoded.Metadata.RequestMetrics["v2"] != 2 {
		t.Fatalf("request_metrics = %v", decoded.Metadata.RequestMetrics)
	}
	if got := decoded.Discoveries["v1"]; len(got) != 2 || got[0] != "ant" {
		t.Fatalf("discoveries = %v", decoded.Discoveries)
	}
}
