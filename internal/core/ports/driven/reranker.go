package driven

import "context"

// RankedDocument is one reranked result.
type RankedDocument struct {
	// Index is the position of the document in the input slice.
	Index int

	// Document is the original document text.
	Document string

	// Score is the relevance score assigned by the reranking model.
	Score float64
}

// Reranker performs a secondary relevance-scoring pass over an initial
// similarity-search result set. This is an optional service - when
// nil, retrieval degrades gracefully to raw vector-similarity order.
type Reranker interface {
	// Rerank orders documents by relevance to query and returns the
	// topN most relevant. topN <= 0 returns all documents reordered.
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RankedDocument, error)
}
