// Package chunker splits raw text into token-bounded, semantically
// coherent segments. Fenced code blocks are never split: they are
// masked with placeholders before sentence splitting and restored into
// whichever chunk they land in.
package chunker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

// DefaultMaxTokens is the default token budget per chunk, matching the
// recommended input size for embedding models.
const DefaultMaxTokens = 512

var (
	codeBlockRe   = regexp.MustCompile("(?s)```.*?```")
	placeholderRe = regexp.MustCompile(`__CODE_BLOCK_(\d+)__`)
	sentenceEndRe = regexp.MustCompile(`[.!?]+(\s+)`)
)

// TokenCounter counts tokens in a string.
type TokenCounter interface {
	Count(text string) int
}

// Chunker splits text into chunks bounded by a token budget.
// Splitting is a pure function of (text, budget): identical input
// always yields identical chunk boundaries, which is required because
// chunk IDs are derived from ordinal position.
type Chunker struct {
	counter   TokenCounter
	maxTokens int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithMaxTokens sets the token budget per chunk.
func WithMaxTokens(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// New creates a chunker using the given token counter.
func New(counter TokenCounter, opts ...Option) *Chunker {
	c := &Chunker{
		counter:   counter,
		maxTokens: DefaultMaxTokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MaxTokens returns the configured token budget.
func (c *Chunker) MaxTokens() int {
	return c.maxTokens
}

// Split converts text into an ordered sequence of chunks.
//
// The algorithm: mask fenced code blocks, collapse whitespace, split
// into sentences, then greedily accumulate sentences until adding the
// next one would exceed the token budget, flushing the buffer as a
// chunk at each overflow. Placeholders are substituted back before a
// chunk is emitted.
//
// A single sentence that alone exceeds the budget is emitted as its
// own oversized chunk; no sub-sentence splitting is attempted. Token
// counting happens on the masked text, so a chunk holding a large code
// block may also exceed the budget. Both are accepted limitations.
func (c *Chunker) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.ErrEmptyInput
	}

	var blocks []string
	masked := codeBlockRe.ReplaceAllStringFunc(text, func(match string) string {
		blocks = append(blocks, match)
		return fmt.Sprintf("__CODE_BLOCK_%d__", len(blocks)-1)
	})

	// Collapse all whitespace runs to single spaces so the text reads
	// as continuous prose for sentence splitting.
	normalized := strings.Join(strings.Fields(masked), " ")

	sentences := splitSentences(normalized)

	var chunks []string
	var buf strings.Builder
	for _, sentence := range sentences {
		if buf.Len() > 0 && c.counter.Count(buf.String()+" "+sentence) > c.maxTokens {
			chunks = append(chunks, restore(buf.String(), blocks))
			buf.Reset()
			buf.WriteString(sentence)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(sentence)
	}
	if buf.Len() > 0 {
		chunks = append(chunks, restore(buf.String(), blocks))
	}

	return chunks, nil
}

// splitSentences splits normalized text at sentence-ending punctuation
// followed by whitespace. Punctuation stays with the preceding
// sentence; the separating whitespace is consumed.
func splitSentences(text string) []string {
	boundaries := sentenceEndRe.FindAllStringSubmatchIndex(text, -1)

	var units []string
	start := 0
	for _, loc := range boundaries {
		// loc[2] is where the trailing whitespace begins.
		units = append(units, text[start:loc[2]])
		start = loc[1]
	}
	if start < len(text) {
		units = append(units, text[start:])
	}
	return units
}

// restore substitutes code-block placeholders back with their
// original text.
func restore(chunk string, blocks []string) string {
	if len(blocks) == 0 {
		return chunk
	}
	return placeholderRe.ReplaceAllStringFunc(chunk, func(match string) string {
		idx, err := strconv.Atoi(placeholderRe.FindStringSubmatch(match)[1])
		if err != nil || idx >= len(blocks) {
			return match
		}
		return blocks[idx]
	})
}
