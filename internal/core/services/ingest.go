package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tessera-labs/tessera-cli/internal/chunker"
	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driving"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// Ingestion run kinds recorded in the ingest log.
const (
	runKindText       = "text"
	runKindURLs       = "urls"
	runKindRepository = "repository"
)

// IngestService turns raw sources into embedded, stored chunks: it
// chunks, enriches metadata, embeds and upserts, then records the run.
type IngestService struct {
	chunker   *chunker.Chunker
	embedding driven.EmbeddingService
	vectors   *VectorService

	// scraper serves IngestURLs; repos serves IngestRepository. Either
	// may be nil when the corresponding entry point is not wired.
	scraper driven.Scraper
	repos   driven.RepositoryConnector

	// log is optional bookkeeping; a nil log skips recording.
	log driven.IngestLog
}

// NewIngestService creates an ingest service. scraper, repos and log
// are optional.
func NewIngestService(
	ch *chunker.Chunker,
	embedding driven.EmbeddingService,
	vectors *VectorService,
	scraper driven.Scraper,
	repos driven.RepositoryConnector,
	log driven.IngestLog,
) (*IngestService, error) {
	if ch == nil {
		return nil, fmt.Errorf("%w: chunker is required", domain.ErrInvalidInput)
	}
	if embedding == nil {
		return nil, fmt.Errorf("%w: embedding service is required", domain.ErrInvalidInput)
	}
	if vectors == nil {
		return nil, domain.ErrIndexUnavailable
	}

	return &IngestService{
		chunker:   ch,
		embedding: embedding,
		vectors:   vectors,
		scraper:   scraper,
		repos:     repos,
		log:       log,
	}, nil
}

// IngestText processes a direct text submission as one atomic source.
// When the submission yields exactly one chunk, the bare source id is
// kept without the ordinal suffix; the submission is known atomic here.
func (s *IngestService) IngestText(ctx context.Context, content string, meta domain.TextSubmission) ([]domain.Chunk, error) {
	started := time.Now()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyInput
	}
	if len(content) < domain.MinContentLength {
		return nil, fmt.Errorf("%w: %d characters, need at least %d",
			domain.ErrContentTooShort, len(content), domain.MinContentLength)
	}

	source := textSourceID(meta.Title)
	extra := map[string]any{domain.MetaSourceType: sourceTypeOrDefault(meta.SourceType)}
	if meta.Title != "" {
		extra[domain.MetaTitle] = meta.Title
	}
	if meta.Description != "" {
		extra[domain.MetaDescription] = meta.Description
	}
	if len(meta.Tags) > 0 {
		extra[domain.MetaTags] = meta.Tags
	}

	chunks, err := s.process(content, source, extra, true)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, chunks); err != nil {
		return nil, err
	}

	s.recordRun(ctx, runKindText, started, 1, 1, 0)
	s.recordSource(ctx, source, meta.Title, len(chunks))
	return chunks, nil
}

// IngestURLs scrapes and ingests each URL independently. A failing URL
// is reported, never aborts its siblings.
func (s *IngestService) IngestURLs(ctx context.Context, urls []string) ([]domain.Chunk, *domain.IngestReport, error) {
	if s.scraper == nil {
		return nil, nil, fmt.Errorf("%w: no scraper configured", domain.ErrInvalidInput)
	}
	if len(urls) == 0 {
		return nil, nil, domain.ErrEmptyInput
	}

	started := time.Now()
	report := &domain.IngestReport{Total: len(urls)}
	var all []domain.Chunk

	logger.Section("URL Ingestion")
	for _, url := range urls {
		chunks, title, err := s.ingestURL(ctx, url)
		if err != nil {
			logger.Warn("skipping %s: %v", url, err)
			report.AddFailure(url, err)
			continue
		}
		report.Succeeded++
		all = append(all, chunks...)
		s.recordSource(ctx, url, title, len(chunks))
	}

	s.recordRun(ctx, runKindURLs, started, report.Total, report.Succeeded, report.Failed)
	logger.Info("Ingested %d/%d URLs (%s success rate)", report.Succeeded, report.Total, report.SuccessRate())
	return all, report, nil
}

// IngestRepository ingests the markdown documentation of a repository,
// one file per source.
func (s *IngestService) IngestRepository(ctx context.Context, owner, repo string) ([]domain.Chunk, *domain.IngestReport, error) {
	if s.repos == nil {
		return nil, nil, fmt.Errorf("%w: no repository connector configured", domain.ErrInvalidInput)
	}

	started := time.Now()
	files, err := s.repos.FetchDocs(ctx, owner, repo)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s/%s: %w", owner, repo, err)
	}

	report := &domain.IngestReport{Total: len(files)}
	var all []domain.Chunk

	logger.Section("Repository Ingestion")
	for _, file := range files {
		source := fmt.Sprintf("%s/%s/%s", owner, repo, file.Path)
		if len(strings.TrimSpace(file.Content)) < domain.MinContentLength {
			logger.Warn("skipping %s: %v", source, domain.ErrContentTooShort)
			report.AddFailure(source, domain.ErrContentTooShort)
			continue
		}
		extra := map[string]any{
			domain.MetaSourceType: "repository",
			domain.MetaTitle:      file.Path,
		}

		chunks, err := s.process(file.Content, source, extra, false)
		if err != nil {
			logger.Warn("skipping %s: %v", source, err)
			report.AddFailure(source, err)
			continue
		}
		if err := s.store(ctx, chunks); err != nil {
			logger.Warn("skipping %s: %v", source, err)
			report.AddFailure(source, err)
			continue
		}
		report.Succeeded++
		all = append(all, chunks...)
		s.recordSource(ctx, source, file.Path, len(chunks))
	}

	s.recordRun(ctx, runKindRepository, started, report.Total, report.Succeeded, report.Failed)
	logger.Info("Ingested %d/%d files (%s success rate)", report.Succeeded, report.Total, report.SuccessRate())
	return all, report, nil
}

// ingestURL scrapes one URL and stores its chunks.
func (s *IngestService) ingestURL(ctx context.Context, url string) ([]domain.Chunk, string, error) {
	page, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, "", err
	}

	if len(strings.TrimSpace(page.Content)) < domain.MinContentLength {
		return nil, "", domain.ErrContentTooShort
	}

	extra := map[string]any{
		domain.MetaSourceType: "web",
		domain.MetaURL:        page.URL,
	}
	if page.Title != "" {
		extra[domain.MetaTitle] = page.Title
	}
	if page.Description != "" {
		extra[domain.MetaDescription] = page.Description
	}
	for k, v := range page.Metadata {
		extra[k] = v
	}

	chunks, err := s.process(page.Content, url, extra, false)
	if err != nil {
		return nil, "", err
	}
	if err := s.store(ctx, chunks); err != nil {
		return nil, "", err
	}
	return chunks, page.Title, nil
}

// process chunks content and builds Chunk values with stable ordinal
// ids and enriched metadata. bareSingleID keeps the bare source id
// when exactly one chunk results.
func (s *IngestService) process(content, source string, extra map[string]any, bareSingleID bool) ([]domain.Chunk, error) {
	texts, err := s.chunker.Split(content)
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoChunks, source)
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		id := fmt.Sprintf("%s-chunk-%d", source, i)
		if bareSingleID && len(texts) == 1 {
			id = source
		}

		metadata := map[string]any{
			domain.MetaContent:     text,
			domain.MetaSource:      source,
			domain.MetaChunkIndex:  i,
			domain.MetaTotalChunks: len(texts),
		}
		for k, v := range extra {
			metadata[k] = v
		}

		chunks[i] = domain.Chunk{ID: id, Content: text, Metadata: metadata}
	}

	logger.Debug("processed %s into %d chunks", source, len(chunks))
	return chunks, nil
}

// store embeds all chunks in one batch call and upserts the records.
func (s *IngestService) store(ctx context.Context, chunks []domain.Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := s.embedding.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding returned %d vectors for %d chunks", len(vectors), len(chunks))
	}

	records := make([]domain.EmbeddingRecord, len(chunks))
	for i, c := range chunks {
		records[i] = domain.EmbeddingRecord{
			ID:       c.ID,
			Vector:   vectors[i],
			Metadata: c.Metadata,
		}
	}
	return s.vectors.Upsert(ctx, records)
}

func (s *IngestService) recordRun(ctx context.Context, kind string, started time.Time, total, succeeded, failed int) {
	if s.log == nil {
		return
	}
	err := s.log.RecordRun(ctx, driven.IngestRun{
		ID:          uuid.NewString(),
		Kind:        kind,
		StartedAt:   started,
		CompletedAt: time.Now(),
		Total:       total,
		Succeeded:   succeeded,
		Failed:      failed,
	})
	if err != nil {
		logger.Warn("recording run: %v", err)
	}
}

func (s *IngestService) recordSource(ctx context.Context, source, title string, chunks int) {
	if s.log == nil {
		return
	}
	err := s.log.RecordSource(ctx, driven.IngestSource{
		Source:    source,
		Title:     title,
		Chunks:    chunks,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		logger.Warn("recording source: %v", err)
	}
}

// textSourceID derives a stable source identity for a direct text
// submission: the slugged title, or a fresh id for untitled text.
func textSourceID(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ' || r == '-' || r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "text-" + uuid.NewString()
	}
	return "text-" + slug
}

func sourceTypeOrDefault(t string) string {
	if t == "" {
		return "text"
	}
	return t
}
