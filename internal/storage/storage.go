// Package storage defines the blob persistence interface for report
// artifacts.
package storage

import "context"

// BlobStore writes a report artifact and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}
