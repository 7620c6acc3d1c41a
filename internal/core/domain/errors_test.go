package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkTransient(t *testing.T) {
	base := errors.New("connection reset")
	marked := MarkTransient(base)

	assert.True(t, IsTransient(marked))
	assert.ErrorIs(t, marked, base)
	assert.Equal(t, "connection reset", marked.Error())
}

func TestMarkTransient_Nil(t *testing.T) {
	assert.Nil(t, MarkTransient(nil))
}

func TestIsTransient_Unmarked(t *testing.T) {
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_Wrapped(t *testing.T) {
	marked := MarkTransient(errors.New("timeout"))
	wrapped := fmt.Errorf("upsert batch 2: %w", marked)
	assert.True(t, IsTransient(wrapped))
}

func TestErrNoTranscript_IsClassificationFailure(t *testing.T) {
	assert.ErrorIs(t, ErrNoTranscript, ErrClassification)
}

func TestDimensionMismatchError(t *testing.T) {
	err := &DimensionMismatchError{Index: "knowledge-base", IndexDim: 1536, ModelDim: 512}
	require.Contains(t, err.Error(), "knowledge-base")
	assert.Contains(t, err.Error(), "1536")
	assert.Contains(t, err.Error(), "512")

	var dims *DimensionMismatchError
	assert.True(t, errors.As(fmt.Errorf("startup: %w", err), &dims))
}
