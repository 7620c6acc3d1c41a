package driven

import "context"

// Transcriber converts recorded audio to text.
// An empty transcript is a valid result meaning "no speech detected";
// callers treat it as missing input, not as a failure.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (string, error)
}
