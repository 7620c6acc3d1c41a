package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMetadata_Scalars(t *testing.T) {
	md := map[string]any{
		"source":      "https://example.com",
		"chunkIndex":  3,
		"totalChunks": int64(7),
		"score":       0.92,
		"published":   true,
	}
	require.NoError(t, ValidateMetadata(md))
}

func TestValidateMetadata_StringSlices(t *testing.T) {
	assert.NoError(t, ValidateMetadata(map[string]any{"tags": []string{"go", "rag"}}))
	assert.NoError(t, ValidateMetadata(map[string]any{"tags": []any{"go", "rag"}}))
}

func TestValidateMetadata_RejectsNested(t *testing.T) {
	err := ValidateMetadata(map[string]any{
		"author": map[string]any{"name": "x"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestValidateMetadata_RejectsMixedSlice(t *testing.T) {
	err := ValidateMetadata(map[string]any{"tags": []any{"go", 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScoredRecord_Content(t *testing.T) {
	rec := ScoredRecord{Metadata: map[string]any{MetaContent: "hello"}}
	assert.Equal(t, "hello", rec.Content())

	empty := ScoredRecord{Metadata: map[string]any{}}
	assert.Equal(t, "", empty.Content())
}

func TestScoredRecord_SourceLabel(t *testing.T) {
	rec := ScoredRecord{
		ID: "doc-1",
		Metadata: map[string]any{
			MetaTitle:  "Getting Started",
			MetaSource: "https://example.com/docs",
		},
	}
	assert.Equal(t, "Getting Started", rec.SourceLabel())

	noTitle := ScoredRecord{ID: "doc-2", Metadata: map[string]any{MetaSource: "src"}}
	assert.Equal(t, "src", noTitle.SourceLabel())

	bare := ScoredRecord{ID: "doc-3", Metadata: map[string]any{}}
	assert.Equal(t, "doc-3", bare.SourceLabel())
}
