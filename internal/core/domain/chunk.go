package domain

import "fmt"

// MinContentLength is the minimum content size in characters for a
// retrievable chunk. Shorter content is rejected with
// ErrContentTooShort, never silently dropped.
const MinContentLength = 20

// Well-known metadata keys. Every processed chunk carries source,
// chunkIndex and totalChunks; the rest are optional enrichment.
const (
	MetaContent     = "content"
	MetaSource      = "source"
	MetaChunkIndex  = "chunkIndex"
	MetaTotalChunks = "totalChunks"
	MetaTitle       = "title"
	MetaURL         = "url"
	MetaDescription = "description"
	MetaTags        = "tags"
	MetaSourceType  = "sourceType"
)

// Chunk is the unit of embedding and retrieval: a bounded segment of
// source text plus metadata. Chunks are immutable once created;
// metadata enrichment happens during construction only.
type Chunk struct {
	// ID is unique and stable across re-runs of the same source,
	// derived from source identity and ordinal position. Stability is
	// what makes upsert idempotent.
	ID string

	// Content is the chunk text. Invariant: non-empty and at least
	// MinContentLength characters.
	Content string

	// Metadata holds scalar or string-slice values only; the vector
	// store rejects nested objects.
	Metadata map[string]any
}

// EmbeddingRecord is the unit stored in the vector index.
type EmbeddingRecord struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// ScoredRecord is a similarity search result.
type ScoredRecord struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Content returns the stored chunk text from a search result, or ""
// when the record carries none.
func (r ScoredRecord) Content() string {
	if v, ok := r.Metadata[MetaContent].(string); ok {
		return v
	}
	return ""
}

// SourceLabel returns the best attribution label for a search result:
// title, then source, then url, then the record id.
func (r ScoredRecord) SourceLabel() string {
	for _, key := range []string{MetaTitle, MetaSource, MetaURL} {
		if v, ok := r.Metadata[key].(string); ok && v != "" {
			return v
		}
	}
	return r.ID
}

// ValidateMetadata checks that every value is a scalar or a string
// slice. Nested maps and mixed slices are a hard constraint of the
// underlying store and are rejected before upsert.
func ValidateMetadata(md map[string]any) error {
	for key, val := range md {
		if !validMetadataValue(val) {
			return fmt.Errorf("%w: metadata key %q has unsupported value type %T", ErrInvalidInput, key, val)
		}
	}
	return nil
}

func validMetadataValue(v any) bool {
	switch val := v.(type) {
	case string, bool,
		int, int32, int64,
		float32, float64:
		return true
	case []string:
		return true
	case []any:
		for _, item := range val {
			if _, ok := item.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}
