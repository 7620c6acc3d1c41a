package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/tessera-cli/internal/adapters/driven/vectorstore/memory"
	"github.com/tessera-labs/tessera-cli/internal/chunker"
	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

// sentence repeats enough words to force multiple chunks under a small
// token budget.
func longText(sentences int) string {
	var sb strings.Builder
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&sb, "This is sentence number %d with several extra words in it. ", i)
	}
	return sb.String()
}

type ingestFixture struct {
	service   *IngestService
	index     *memory.Index
	embedding *fakeEmbedding
	scraper   *fakeScraper
	repos     *fakeRepoConnector
	log       *memoryLog
}

func newIngestFixture(t *testing.T) *ingestFixture {
	t.Helper()

	index := memory.NewIndex()
	require.NoError(t, index.CreateIndex(context.Background(), "kb", testDim, driven.MetricCosine))
	vectors, err := NewVectorService(index, "kb")
	require.NoError(t, err)

	embedding := &fakeEmbedding{dim: testDim}
	scraper := &fakeScraper{pages: map[string]*driven.PageContent{}, errs: map[string]error{}}
	repos := &fakeRepoConnector{}
	log := &memoryLog{}

	ch := chunker.New(wordCounter{}, chunker.WithMaxTokens(20))
	service, err := NewIngestService(ch, embedding, vectors, scraper, repos, log)
	require.NoError(t, err)

	return &ingestFixture{
		service:   service,
		index:     index,
		embedding: embedding,
		scraper:   scraper,
		repos:     repos,
		log:       log,
	}
}

func TestIngestText(t *testing.T) {
	f := newIngestFixture(t)

	chunks, err := f.service.IngestText(context.Background(), longText(10), domain.TextSubmission{
		Title:      "Vector Search Notes",
		Tags:       []string{"search", "vectors"},
		SourceType: "article",
	})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Ordinal ids derived from the slugged title.
	assert.Equal(t, "text-vector-search-notes-chunk-0", chunks[0].ID)
	assert.Equal(t, "text-vector-search-notes-chunk-1", chunks[1].ID)

	// Metadata enrichment.
	md := chunks[0].Metadata
	assert.Equal(t, "Vector Search Notes", md[domain.MetaTitle])
	assert.Equal(t, "article", md[domain.MetaSourceType])
	assert.Equal(t, 0, md[domain.MetaChunkIndex])
	assert.Equal(t, len(chunks), md[domain.MetaTotalChunks])
	assert.Equal(t, chunks[0].Content, md[domain.MetaContent])

	// Everything landed in the index and the log.
	assert.Equal(t, len(chunks), f.index.Len("kb"))
	require.Len(t, f.log.runs, 1)
	assert.Equal(t, "text", f.log.runs[0].Kind)
	require.Len(t, f.log.sources, 1)
	assert.Equal(t, len(chunks), f.log.sources[0].Chunks)
}

func TestIngestText_SingleChunkKeepsBareID(t *testing.T) {
	f := newIngestFixture(t)

	chunks, err := f.service.IngestText(context.Background(),
		"A short but valid note about embeddings.", domain.TextSubmission{Title: "Tiny Note"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	// Atomic submission: no -chunk-0 suffix.
	assert.Equal(t, "text-tiny-note", chunks[0].ID)
}

func TestIngestText_Idempotent(t *testing.T) {
	f := newIngestFixture(t)
	meta := domain.TextSubmission{Title: "Stable Source"}

	first, err := f.service.IngestText(context.Background(), longText(10), meta)
	require.NoError(t, err)
	second, err := f.service.IngestText(context.Background(), longText(10), meta)
	require.NoError(t, err)

	// Same title and content produce the same ids, so re-ingestion
	// overwrites instead of duplicating.
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, len(first), f.index.Len("kb"))
}

func TestIngestText_Validation(t *testing.T) {
	f := newIngestFixture(t)

	_, err := f.service.IngestText(context.Background(), "   ", domain.TextSubmission{})
	assert.ErrorIs(t, err, domain.ErrEmptyInput)

	_, err = f.service.IngestText(context.Background(), "too short", domain.TextSubmission{})
	assert.ErrorIs(t, err, domain.ErrContentTooShort)
}

func TestIngestURLs_PartialFailure(t *testing.T) {
	f := newIngestFixture(t)

	good := func(url string) *driven.PageContent {
		return &driven.PageContent{
			URL:     url,
			Title:   "Page " + url,
			Content: longText(6),
		}
	}
	f.scraper.pages["https://a.test/1"] = good("https://a.test/1")
	f.scraper.pages["https://a.test/2"] = good("https://a.test/2")
	f.scraper.pages["https://a.test/3"] = good("https://a.test/3")
	f.scraper.errs["https://a.test/4"] = assert.AnError
	f.scraper.pages["https://a.test/5"] = &driven.PageContent{URL: "https://a.test/5", Content: "thin"}

	chunks, report, err := f.service.IngestURLs(context.Background(), []string{
		"https://a.test/1", "https://a.test/2", "https://a.test/3",
		"https://a.test/4", "https://a.test/5",
	})
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 3, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, "60.0%", report.SuccessRate())
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "https://a.test/4", report.Failures[0].Source)

	assert.NotEmpty(t, chunks)
	require.Len(t, f.log.runs, 1)
	assert.Equal(t, "urls", f.log.runs[0].Kind)
	assert.Equal(t, 3, f.log.runs[0].Succeeded)
	assert.Len(t, f.log.sources, 3)
}

func TestIngestURLs_ChunkIDsUseURL(t *testing.T) {
	f := newIngestFixture(t)
	f.scraper.pages["https://a.test/post"] = &driven.PageContent{
		URL:     "https://a.test/post",
		Title:   "Post",
		Content: longText(10),
	}

	chunks, _, err := f.service.IngestURLs(context.Background(), []string{"https://a.test/post"})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// URL ingestion always carries the ordinal suffix, even for a
	// single chunk; only the atomic text path drops it.
	assert.Equal(t, "https://a.test/post-chunk-0", chunks[0].ID)
	assert.Equal(t, "web", chunks[0].Metadata[domain.MetaSourceType])
	assert.Equal(t, "https://a.test/post", chunks[0].Metadata[domain.MetaURL])
}

func TestIngestURLs_Empty(t *testing.T) {
	f := newIngestFixture(t)
	_, _, err := f.service.IngestURLs(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrEmptyInput)
}

func TestIngestRepository(t *testing.T) {
	f := newIngestFixture(t)
	f.repos.files = []driven.RepositoryFile{
		{Path: "README.md", Content: longText(6)},
		{Path: "docs/guide.md", Content: longText(6)},
		{Path: "docs/empty.md", Content: "   "},
	}

	chunks, report, err := f.service.IngestRepository(context.Background(), "acme", "notes")
	require.NoError(t, err)

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	assert.Equal(t, "acme/notes/README.md-chunk-0", chunks[0].ID)
	assert.Equal(t, "repository", chunks[0].Metadata[domain.MetaSourceType])

	require.Len(t, f.log.runs, 1)
	assert.Equal(t, "repository", f.log.runs[0].Kind)
}

func TestIngestRepository_ShortFileRejected(t *testing.T) {
	f := newIngestFixture(t)
	f.repos.files = []driven.RepositoryFile{
		{Path: "README.md", Content: "Tiny."},
		{Path: "docs/guide.md", Content: longText(6)},
	}

	chunks, report, err := f.service.IngestRepository(context.Background(), "acme", "notes")
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "acme/notes/README.md", report.Failures[0].Source)
	assert.Contains(t, report.Failures[0].Reason, "content too short")

	// Nothing from the short file reaches the index.
	for _, c := range chunks {
		assert.NotEqual(t, "Tiny.", c.Content)
	}
	assert.Equal(t, len(chunks), f.index.Len("kb"))
}

func TestIngestRepository_FetchFailure(t *testing.T) {
	f := newIngestFixture(t)
	f.repos.err = assert.AnError

	_, _, err := f.service.IngestRepository(context.Background(), "acme", "ghost")
	assert.Error(t, err)
}

func TestTextSourceID(t *testing.T) {
	assert.Equal(t, "text-my-great-note", textSourceID("My Great Note"))
	assert.Equal(t, "text-c-tips", textSourceID("  C++ Tips!  "))

	// Untitled submissions get a fresh id each time.
	a, b := textSourceID(""), textSourceID("")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "text-"))
}
