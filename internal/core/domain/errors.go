package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrEmptyInput indicates text input was empty or whitespace-only.
	ErrEmptyInput = errors.New("empty input")

	// ErrContentTooShort indicates content below the minimum length.
	// This is a permanent rejection and is never retried.
	ErrContentTooShort = errors.New("content too short")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoChunks indicates segmentation produced zero chunks.
	// The caller decides whether to skip the item or abort the batch.
	ErrNoChunks = errors.New("no chunks produced")

	// ErrClassification indicates routing could not produce a usable
	// decision. The system never guesses a default agent.
	ErrClassification = errors.New("classification failed")

	// ErrUnknownAgent indicates a routing decision named an agent that
	// is not in the registry. Dispatch never falls back silently.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrNoTranscript indicates audio transcription returned no text.
	// A query cannot be classified without a transcript, so this is a
	// kind of classification failure.
	ErrNoTranscript = fmt.Errorf("%w: empty transcription", ErrClassification)

	// ErrIndexUnavailable indicates the vector index is not configured.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrLLMUnavailable indicates the language model service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// DimensionMismatchError reports a conflict between the embedding model
// output size and an existing index. This is a fatal configuration
// error: it aborts startup or the ingestion run, never a retry.
type DimensionMismatchError struct {
	Index    string
	IndexDim int
	ModelDim int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("index %q has dimension %d but embedding model produces %d",
		e.Index, e.IndexDim, e.ModelDim)
}

// transientError marks a provider failure as retryable.
type transientError struct {
	err error
}

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// MarkTransient wraps err so IsTransient reports true for it.
// Adapters mark network failures, timeouts and rate limits; validation
// and configuration errors stay unmarked and are surfaced immediately.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// IsTransient reports whether err (or any wrapped error) was marked
// transient and may be retried under the backoff policy.
func IsTransient(err error) bool {
	var t *transientError
	return errors.As(err, &t)
}
