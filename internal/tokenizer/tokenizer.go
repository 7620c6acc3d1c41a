// Package tokenizer wraps tiktoken to count tokens the same way the
// embedding and chat models do. Chunk budgets are expressed in tokens,
// not characters, so the chunker needs an exact count.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE encoding used by current OpenAI models.
const DefaultEncoding = "o200k_base"

// Counter counts tokens using a tiktoken encoding.
// Counting is pure; a Counter is safe for concurrent use.
type Counter struct {
	enc  *tiktoken.Tiktoken
	name string
}

// New creates a counter for the given encoding name.
// An empty name selects DefaultEncoding.
func New(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %q: %w", encoding, err)
	}
	return &Counter{enc: enc, name: encoding}, nil
}

// ForModel creates a counter using the encoding registered for a model.
func ForModel(model string) (*Counter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("load encoding for model %q: %w", model, err)
	}
	return &Counter{enc: enc, name: model}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Encoding returns the encoding or model name this counter was built from.
func (c *Counter) Encoding() string {
	return c.name
}
