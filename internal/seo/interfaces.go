package seo

import (
	"context"
	"time"
)

// Analyzer inspects a crawl snapshot and proposes tasks. Implementations
// must not mutate the snapshot. A failed analysis is reported through the
// returned error; the harness converts it into a failed Report and keeps
// running the remaining analyzers.
type Analyzer interface {
	Name() string
	Analyze(ctx context.Context, snapshot Snapshot) (Report, error)
}

// Crawler builds the crawl snapshot for one run. Per-page failures are
// represented inside the page records, not as a call failure.
type Crawler interface {
	Crawl(ctx context.Context, seeds []string) (Snapshot, error)
}

// AlertPublisher pushes alert payloads to an external channel.
type AlertPublisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
	Close() error
}

// Hasher computes digests for change detection.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
