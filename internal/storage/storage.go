// Package storage defines the artifact blob store boundary. Run artifacts
// (crawl data, analyzer reports, plans, summaries, patches) are written
// through a Store so the backend can be swapped between the local
// filesystem, memory (tests), and GCS.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists at the path.
var ErrNotFound = errors.New("storage: object not found")

// Store writes and reads raw artifacts by path.
type Store interface {
	Put(ctx context.Context, path string, data []byte) (string, error)
	Get(ctx context.Context, path string) ([]byte, error)
}
