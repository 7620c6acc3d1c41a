package services

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

// Vector service policy constants.
const (
	// UpsertBatchSize bounds one provider call; large record sets are
	// split into batches of this size.
	UpsertBatchSize = 100

	// retryBaseDelay is the first backoff interval.
	retryBaseDelay = time.Second

	// retryMaxAttempts caps retries of one provider call. Only errors
	// marked transient are retried; permanent errors surface at once.
	retryMaxAttempts = 5
)

// VectorService wraps a VectorIndex provider with batching, retry and
// metadata validation. Services talk to this wrapper, never to the
// provider port directly.
type VectorService struct {
	index driven.VectorIndex
	name  string

	// retryBase is the first backoff interval. Tests shrink it.
	retryBase time.Duration
}

// NewVectorService creates a vector service bound to one named index.
func NewVectorService(index driven.VectorIndex, name string) (*VectorService, error) {
	if index == nil {
		return nil, domain.ErrIndexUnavailable
	}
	if name == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}
	return &VectorService{index: index, name: name, retryBase: retryBaseDelay}, nil
}

// IndexName returns the name of the bound index.
func (s *VectorService) IndexName() string {
	return s.name
}

// EnsureIndex makes sure the bound index exists with the given
// dimension. An existing index with a different dimension is a fatal
// configuration error, reported as DimensionMismatchError.
func (s *VectorService) EnsureIndex(ctx context.Context, dimension int, metric string) error {
	infos, err := s.withRetryList(ctx)
	if err != nil {
		return fmt.Errorf("listing indexes: %w", err)
	}

	for _, info := range infos {
		if info.Name != s.name {
			continue
		}
		if info.Dimension != dimension {
			return &domain.DimensionMismatchError{
				Index:    s.name,
				IndexDim: info.Dimension,
				ModelDim: dimension,
			}
		}
		logger.Debug("index %q exists with dimension %d", s.name, dimension)
		return nil
	}

	logger.Info("Creating index %q (dimension %d, metric %s)", s.name, dimension, metric)
	return s.withRetry(ctx, func() error {
		return s.index.CreateIndex(ctx, s.name, dimension, metric)
	})
}

// Upsert validates metadata, splits records into batches and writes
// each batch with retry. Stable record ids make re-runs overwrite
// rather than duplicate.
func (s *VectorService) Upsert(ctx context.Context, records []domain.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}

	for _, rec := range records {
		if err := domain.ValidateMetadata(rec.Metadata); err != nil {
			return fmt.Errorf("record %q: %w", rec.ID, err)
		}
	}

	for start := 0; start < len(records); start += UpsertBatchSize {
		end := start + UpsertBatchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		logger.Debug("upserting batch %d-%d of %d records", start, end, len(records))
		err := s.withRetry(ctx, func() error {
			return s.index.Upsert(ctx, s.name, batch)
		})
		if err != nil {
			return fmt.Errorf("upserting records %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// Query returns up to topK records ordered by descending similarity.
func (s *VectorService) Query(ctx context.Context, vector []float32, topK int, filter map[string]any) ([]domain.ScoredRecord, error) {
	var results []domain.ScoredRecord
	err := s.withRetry(ctx, func() error {
		var qerr error
		results, qerr = s.index.Query(ctx, s.name, vector, topK, filter)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("querying index %q: %w", s.name, err)
	}
	return results, nil
}

// withRetry runs op under the exponential backoff policy. Errors not
// marked transient abort immediately.
func (s *VectorService) withRetry(ctx context.Context, op func() error) error {
	policy := backoff.WithContext(newBackoff(s.retryBase), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		logger.Warn("transient vector store error (attempt %d): %v", attempt, err)
		return err
	}, policy)
}

func (s *VectorService) withRetryList(ctx context.Context) ([]driven.IndexInfo, error) {
	var infos []driven.IndexInfo
	err := s.withRetry(ctx, func() error {
		var lerr error
		infos, lerr = s.index.ListIndexes(ctx)
		return lerr
	})
	return infos, err
}

func newBackoff(base time.Duration) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	return backoff.WithMaxRetries(b, retryMaxAttempts)
}
