package driven

import (
	"context"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

// Similarity metrics supported by index providers.
const (
	MetricCosine = "cosine"
	MetricDot    = "dot"
	MetricEuclid = "euclidean"
)

// IndexInfo describes an index that exists on the provider.
type IndexInfo struct {
	Name      string
	Dimension int
	Metric    string
}

// VectorIndex is the provider-level port for a vector database.
// It is intentionally thin: batching, retry and metadata validation
// live in the VectorService wrapper, not in adapters.
//
// Implementations must mark network, timeout and rate-limit failures
// with domain.MarkTransient so the wrapper knows what to retry.
type VectorIndex interface {
	// CreateIndex creates an index with the given dimension and
	// metric. Creating an index that already exists with the same
	// schema is not an error.
	CreateIndex(ctx context.Context, name string, dimension int, metric string) error

	// ListIndexes returns the indexes available on the provider.
	ListIndexes(ctx context.Context) ([]IndexInfo, error)

	// Upsert inserts or overwrites records by id within one batch
	// call. Per-batch atomicity is the provider's responsibility.
	Upsert(ctx context.Context, index string, records []domain.EmbeddingRecord) error

	// Query returns up to topK records ordered by descending
	// similarity, with metadata. filter restricts matches by metadata
	// equality and may be nil.
	Query(ctx context.Context, index string, vector []float32, topK int, filter map[string]any) ([]domain.ScoredRecord, error)
}
