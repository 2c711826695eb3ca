// Package report renders finished harvest snapshots as text and JSON
// artifacts.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/namehound/namehound/internal/harvest"
)

// Metadata describes the run that produced a JSON report.
type Metadata struct {
	RunID          string           `json:"run_id"`
	Timestamp      time.Time        `json:"timestamp"`
	APIVersions    []string         `json:"api_versions"`
	TotalRequests  int64            `json:"total_requests"`
	RequestMetrics map[string]int64 `json:"request_metrics"`
}

// Document is the JSON report payload.
type Document struct {
	Metadata    Metadata            `json:"metadata"`
	Discoveries map[string][]string `json:"discoveries"`
}

// NewDocument assembles the JSON report from a finished snapshot.
func NewDocument(runID string, ts time.Time, versions []string, snap harvest.Snapshot) Document {
	metrics := make(map[string]int64, len(versions))
	for _, v := range versions {
		metrics[v] = snap.Requests[v]
	}
	return Document{
		Metadata: Metadata{
			RunID:          runID,
			Timestamp:      ts.UTC(),
			APIVersions:    versions,
			TotalRequests:  snap.TotalRequests(),
			RequestMetrics: metrics,
		},
		Discoveries: snap.Discoveries,
	}
}

// WriteJSON renders the document as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return nil
}

// WriteText renders the human-readable report: a summary line, then one
// section per version listing names in lexicographic order.
func WriteText(w io.Writer, versions []string, snap harvest.Snapshot) error {
	_, err := fmt.Fprintf(w, "%d unique names discovered across %d API versions in %d requests\n",
		snap.TotalNames(), len(versions), snap.TotalRequests())
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	for _, version := range versions {
		names := snap.Discoveries[version]
		_, err := fmt.Fprintf(w, "\n--- %s --- (%d names, %d requests)\n",
			version, len(names), snap.Requests[version])
		if err != nil {
			return fmt.Errorf("write section header: %w", err)
		}
		for _, name := range names {
			if _, err := fmt.Fprintln(w, name); err != nil {
				return fmt.Errorf("write name: %w", err)
			}
		}
	}
	return nil
}
