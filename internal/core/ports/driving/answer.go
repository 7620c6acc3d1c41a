package driving

import (
	"context"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

// AnswerService is the query entry point: it classifies the input,
// dispatches to the selected agent and returns the response together
// with the routing decision.
type AnswerService interface {
	// Answer routes and answers a text query.
	Answer(ctx context.Context, input string) (*domain.Answer, error)

	// AnswerAudio transcribes the audio first and routes on the
	// transcript. An empty transcript fails with domain.ErrNoTranscript.
	AnswerAudio(ctx context.Context, audio []byte, format string) (*domain.Answer, error)
}
