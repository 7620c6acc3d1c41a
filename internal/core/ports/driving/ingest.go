package driving

import (
	"context"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

// IngestService turns raw sources into embedded, stored chunks.
type IngestService interface {
	// IngestText processes a direct text submission. Content shorter
	// than the minimum threshold fails with domain.ErrContentTooShort.
	IngestText(ctx context.Context, content string, meta domain.TextSubmission) ([]domain.Chunk, error)

	// IngestURLs scrapes and ingests each URL independently. Failure
	// of one URL never aborts the batch; failures are collected in the
	// report.
	IngestURLs(ctx context.Context, urls []string) ([]domain.Chunk, *domain.IngestReport, error)

	// IngestRepository ingests the markdown documentation of a GitHub
	// repository, one file per source.
	IngestRepository(ctx context.Context, owner, repo string) ([]domain.Chunk, *domain.IngestReport, error)
}
