package driven

import (
	"context"
	"encoding/json"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures a generation call.
type ChatOptions struct {
	// Model selects the model for this call. The dispatcher resolves
	// it per agent from the registry, so it is per-call rather than
	// fixed at service construction.
	Model string

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}

// LLMService provides language model operations.
//
// Implementations may include:
//   - OpenAI (chat completions, structured outputs, SSE streaming)
//   - Compatible inference servers
type LLMService interface {
	// Chat conducts a conversation and returns the complete response.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ChatStream conducts a conversation and returns a live token
	// stream. The stream honours ctx: cancelling it stops token
	// production and releases the underlying connection.
	ChatStream(ctx context.Context, messages []ChatMessage, opts ChatOptions) (domain.TokenStream, error)

	// ChatStructured requests a response constrained to the given JSON
	// schema and returns the raw JSON payload. The caller validates
	// the payload before trusting it.
	ChatStructured(ctx context.Context, messages []ChatMessage, opts ChatOptions, schemaName string, schema json.RawMessage) (json.RawMessage, error)
}
