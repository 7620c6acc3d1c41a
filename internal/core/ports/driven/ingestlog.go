package driven

import (
	"context"
	"time"
)

// IngestRun records one ingestion batch for later inspection.
type IngestRun struct {
	ID          string
	Kind        string // "text", "urls", "repository"
	StartedAt   time.Time
	CompletedAt time.Time
	Total       int
	Succeeded   int
	Failed      int
}

// IngestSource records the latest ingestion state of one source.
// Re-ingesting a source overwrites its entry, mirroring the
// last-write-wins semantics of the vector index.
type IngestSource struct {
	Source    string
	Title     string
	Chunks    int
	UpdatedAt time.Time
}

// IngestLog is the bookkeeping store for ingestion runs and sources.
type IngestLog interface {
	RecordRun(ctx context.Context, run IngestRun) error
	RecordSource(ctx context.Context, src IngestSource) error
	ListSources(ctx context.Context) ([]IngestSource, error)
	ListRuns(ctx context.Context, limit int) ([]IngestRun, error)
	Close() error
}
