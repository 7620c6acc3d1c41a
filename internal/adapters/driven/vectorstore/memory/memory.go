// Package memory provides an in-memory vector index for tests and
// offline use. Similarity is exact cosine over all records.
package memory

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"sync"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Index is an in-memory implementation of driven.VectorIndex.
// Safe for concurrent use.
type Index struct {
	mu      sync.RWMutex
	indexes map[string]*indexData
}

type indexData struct {
	dimension int
	metric    string
	records   map[string]domain.EmbeddingRecord
}

// NewIndex creates an empty in-memory vector index provider.
func NewIndex() *Index {
	return &Index{indexes: make(map[string]*indexData)}
}

// CreateIndex creates an index. Re-creating an index with the same
// dimension and metric is a no-op; a different schema is an error.
func (s *Index) CreateIndex(_ context.Context, name string, dimension int, metric string) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.indexes[name]; ok {
		if existing.dimension != dimension || existing.metric != metric {
			return fmt.Errorf("index %q already exists with different schema", name)
		}
		return nil
	}

	s.indexes[name] = &indexData{
		dimension: dimension,
		metric:    metric,
		records:   make(map[string]domain.EmbeddingRecord),
	}
	return nil
}

// ListIndexes returns the indexes in name order.
func (s *Index) ListIndexes(_ context.Context) ([]driven.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]driven.IndexInfo, 0, len(s.indexes))
	for name, data := range s.indexes {
		infos = append(infos, driven.IndexInfo{
			Name:      name,
			Dimension: data.dimension,
			Metric:    data.metric,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Upsert inserts or overwrites records by id.
func (s *Index) Upsert(_ context.Context, index string, records []domain.EmbeddingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.indexes[index]
	if !ok {
		return fmt.Errorf("index %q does not exist", index)
	}

	for _, rec := range records {
		if len(rec.Vector) != data.dimension {
			return &domain.DimensionMismatchError{
				Index:    index,
				IndexDim: data.dimension,
				ModelDim: len(rec.Vector),
			}
		}
		data.records[rec.ID] = rec
	}
	return nil
}

// Query returns the topK most similar records by cosine similarity.
func (s *Index) Query(_ context.Context, index string, vector []float32, topK int, filter map[string]any) ([]domain.ScoredRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.indexes[index]
	if !ok {
		return nil, fmt.Errorf("index %q does not exist", index)
	}
	if len(vector) != data.dimension {
		return nil, &domain.DimensionMismatchError{
			Index:    index,
			IndexDim: data.dimension,
			ModelDim: len(vector),
		}
	}
	if topK <= 0 {
		topK = 5
	}

	scored := make([]domain.ScoredRecord, 0, len(data.records))
	for _, rec := range data.records {
		if !matchesFilter(rec.Metadata, filter) {
			continue
		}
		scored = append(scored, domain.ScoredRecord{
			ID:       rec.ID,
			Score:    cosine(vector, rec.Vector),
			Metadata: rec.Metadata,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})

	if len(scored) > topK {
		scored = scored[:topK]
	}
	return scored, nil
}

// Len returns the number of records stored in an index.
// Useful for asserting idempotent upsert behaviour in tests.
func (s *Index) Len(index string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.indexes[index]
	if !ok {
		return 0
	}
	return len(data.records)
}

// matchesFilter requires every filter entry to equal the metadata
// value. Values may be slices (e.g. tags), so comparison goes through
// reflect.DeepEqual rather than ==.
func matchesFilter(metadata, filter map[string]any) bool {
	for key, want := range filter {
		if !reflect.DeepEqual(metadata[key], want) {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
