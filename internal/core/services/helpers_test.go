package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

// wordCounter counts whitespace-separated words as tokens.
type wordCounter struct{}

func (wordCounter) Count(text string) int { return len(strings.Fields(text)) }

// fakeEmbedding produces fixed-dimension vectors derived from text
// length, deterministic per input.
type fakeEmbedding struct {
	dim    int
	err    error
	calls  int
	inputs [][]string
}

var _ driven.EmbeddingService = (*fakeEmbedding)(nil)

func (f *fakeEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedding) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	f.inputs = append(f.inputs, texts)
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v := make([]float32, f.dim)
		v[0] = float32(len(text)%7) + 1
		v[f.dim-1] = 1
		vectors[i] = v
	}
	return vectors, nil
}

func (f *fakeEmbedding) Dimensions() int   { return f.dim }
func (f *fakeEmbedding) ModelName() string { return "fake-embedding" }

// mockLLM returns canned responses and captures every call.
type mockLLM struct {
	chatResponse       string
	chatErr            error
	structuredResponse json.RawMessage
	structuredErr      error
	streamFragments    []string
	streamErr          error

	chatMessages       [][]driven.ChatMessage
	chatOptions        []driven.ChatOptions
	structuredMessages [][]driven.ChatMessage
	structuredOptions  []driven.ChatOptions
	streamOptions      []driven.ChatOptions
}

var _ driven.LLMService = (*mockLLM)(nil)

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	m.chatMessages = append(m.chatMessages, messages)
	m.chatOptions = append(m.chatOptions, opts)
	return m.chatResponse, m.chatErr
}

func (m *mockLLM) ChatStream(_ context.Context, _ []driven.ChatMessage, opts driven.ChatOptions) (domain.TokenStream, error) {
	m.streamOptions = append(m.streamOptions, opts)
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	return &sliceStream{fragments: m.streamFragments}, nil
}

func (m *mockLLM) ChatStructured(_ context.Context, messages []driven.ChatMessage, opts driven.ChatOptions, _ string, _ json.RawMessage) (json.RawMessage, error) {
	m.structuredMessages = append(m.structuredMessages, messages)
	m.structuredOptions = append(m.structuredOptions, opts)
	return m.structuredResponse, m.structuredErr
}

// lastSystemPrompt returns the system message of the most recent Chat
// call.
func (m *mockLLM) lastSystemPrompt() string {
	if len(m.chatMessages) == 0 {
		return ""
	}
	for _, msg := range m.chatMessages[len(m.chatMessages)-1] {
		if msg.Role == driven.RoleSystem {
			return msg.Content
		}
	}
	return ""
}

// sliceStream replays fixed fragments as a TokenStream.
type sliceStream struct {
	fragments []string
	pos       int
	closed    bool
}

func (s *sliceStream) Recv() (string, error) {
	if s.pos >= len(s.fragments) {
		return "", io.EOF
	}
	fragment := s.fragments[s.pos]
	s.pos++
	return fragment, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// flakyIndex fails the first n calls with a transient error, then
// delegates to the wrapped index.
type flakyIndex struct {
	driven.VectorIndex
	failures int
	calls    int
}

func (f *flakyIndex) Upsert(ctx context.Context, index string, records []domain.EmbeddingRecord) error {
	f.calls++
	if f.calls <= f.failures {
		return domain.MarkTransient(fmt.Errorf("upstream hiccup %d", f.calls))
	}
	return f.VectorIndex.Upsert(ctx, index, records)
}

// fakeScraper serves canned pages by URL.
type fakeScraper struct {
	pages map[string]*driven.PageContent
	errs  map[string]error
}

var _ driven.Scraper = (*fakeScraper)(nil)

func (f *fakeScraper) Scrape(_ context.Context, url string) (*driven.PageContent, error) {
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return nil, fmt.Errorf("no page for %s", url)
}

// fakeRepoConnector serves canned repository files.
type fakeRepoConnector struct {
	files []driven.RepositoryFile
	err   error
}

var _ driven.RepositoryConnector = (*fakeRepoConnector)(nil)

func (f *fakeRepoConnector) FetchDocs(context.Context, string, string) ([]driven.RepositoryFile, error) {
	return f.files, f.err
}

// memoryLog collects ingest log records in memory.
type memoryLog struct {
	runs    []driven.IngestRun
	sources []driven.IngestSource
}

var _ driven.IngestLog = (*memoryLog)(nil)

func (l *memoryLog) RecordRun(_ context.Context, run driven.IngestRun) error {
	l.runs = append(l.runs, run)
	return nil
}

func (l *memoryLog) RecordSource(_ context.Context, src driven.IngestSource) error {
	l.sources = append(l.sources, src)
	return nil
}

func (l *memoryLog) ListSources(context.Context) ([]driven.IngestSource, error) {
	return l.sources, nil
}

func (l *memoryLog) ListRuns(context.Context, int) ([]driven.IngestRun, error) {
	return l.runs, nil
}

func (l *memoryLog) Close() error { return nil }

// fakeTranscriber returns a fixed transcript.
type fakeTranscriber struct {
	transcript string
	err        error
}

var _ driven.Transcriber = (*fakeTranscriber)(nil)

func (f *fakeTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return f.transcript, f.err
}

// fakeReranker reverses the input order to make reordering observable.
type fakeReranker struct {
	err   error
	calls int
}

var _ driven.Reranker = (*fakeReranker)(nil)

func (f *fakeReranker) Rerank(_ context.Context, _ string, documents []string, topN int) ([]driven.RankedDocument, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}
	ranked := make([]driven.RankedDocument, 0, topN)
	for i := len(documents) - 1; i >= len(documents)-topN; i-- {
		ranked = append(ranked, driven.RankedDocument{
			Index:    i,
			Document: documents[i],
			Score:    float64(len(documents) - i),
		})
	}
	return ranked, nil
}
