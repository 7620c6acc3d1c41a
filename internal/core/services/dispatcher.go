package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

// DefaultTopK bounds retrieval when the configuration does not set one.
const DefaultTopK = 5

// linkedinSystemPrompt is the fixed style instruction for the linkedin
// agent; it performs no retrieval.
const linkedinSystemPrompt = "You write LinkedIn posts: direct, concrete and professional. " +
	"Short paragraphs, no hashtag walls, no emoji spam. Lead with the insight."

// generalSystemPrompt keeps the general agent minimal.
const generalSystemPrompt = "You are a helpful assistant. Be concise and accurate."

// DispatcherService executes a routing decision with the strategy the
// selected agent requires.
type DispatcherService struct {
	llm       driven.LLMService
	embedding driven.EmbeddingService
	vectors   *VectorService
	registry  *domain.AgentRegistry

	// reranker is optional; nil degrades to vector-similarity order.
	reranker driven.Reranker

	topK int
}

// NewDispatcherService creates a dispatcher. reranker may be nil.
func NewDispatcherService(
	llm driven.LLMService,
	embedding driven.EmbeddingService,
	vectors *VectorService,
	registry *domain.AgentRegistry,
	reranker driven.Reranker,
	topK int,
) (*DispatcherService, error) {
	if llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	return &DispatcherService{
		llm:       llm,
		embedding: embedding,
		vectors:   vectors,
		registry:  registry,
		reranker:  reranker,
		topK:      topK,
	}, nil
}

// Dispatch runs the strategy for the decision's agent and returns the
// answer. knowledgeBase answers with grounded text; linkedin and
// general answer with a live token stream.
func (s *DispatcherService) Dispatch(ctx context.Context, decision *domain.RoutingDecision) (*domain.Answer, error) {
	if decision == nil {
		return nil, fmt.Errorf("%w: nil decision", domain.ErrInvalidInput)
	}
	// Guard again even though the router validates membership; dispatch
	// never falls back to another agent.
	if _, ok := s.registry.Lookup(decision.SelectedAgent); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAgent, decision.SelectedAgent)
	}

	logger.Section("Dispatch")
	logger.Debug("agent=%s model=%s query=%q", decision.SelectedAgent, decision.Model, decision.AgentQuery)

	switch decision.SelectedAgent {
	case domain.AgentKnowledgeBase:
		return s.dispatchKnowledgeBase(ctx, decision)
	case domain.AgentLinkedIn:
		return s.dispatchStreaming(ctx, decision, linkedinSystemPrompt)
	case domain.AgentGeneral:
		return s.dispatchStreaming(ctx, decision, generalSystemPrompt)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAgent, decision.SelectedAgent)
	}
}

// dispatchKnowledgeBase retrieves grounding context and generates a
// complete answer.
func (s *DispatcherService) dispatchKnowledgeBase(ctx context.Context, decision *domain.RoutingDecision) (*domain.Answer, error) {
	if s.embedding == nil {
		return nil, fmt.Errorf("%w: no embedding service for retrieval", domain.ErrLLMUnavailable)
	}
	if s.vectors == nil {
		return nil, domain.ErrIndexUnavailable
	}

	vector, err := s.embedding.Embed(ctx, decision.AgentQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := s.vectors.Query(ctx, vector, s.topK, nil)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}
	logger.Debug("retrieved %d records", len(results))

	results, err = s.rerank(ctx, decision.AgentQuery, results)
	if err != nil {
		// Reranking is best-effort: keep similarity order on failure.
		logger.Warn("reranking failed, keeping similarity order: %v", err)
	}

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: groundingPrompt(results)},
		{Role: driven.RoleUser, Content: decision.AgentQuery},
	}
	text, err := s.llm.Chat(ctx, messages, driven.ChatOptions{Model: decision.Model})
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	return &domain.Answer{Decision: *decision, Text: text}, nil
}

// dispatchStreaming answers without retrieval, streaming tokens.
func (s *DispatcherService) dispatchStreaming(ctx context.Context, decision *domain.RoutingDecision, systemPrompt string) (*domain.Answer, error) {
	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: systemPrompt},
		{Role: driven.RoleUser, Content: decision.AgentQuery},
	}
	stream, err := s.llm.ChatStream(ctx, messages, driven.ChatOptions{Model: decision.Model})
	if err != nil {
		return nil, fmt.Errorf("starting stream: %w", err)
	}
	return &domain.Answer{Decision: *decision, Stream: stream}, nil
}

// rerank reorders results with the optional reranker.
func (s *DispatcherService) rerank(ctx context.Context, query string, results []domain.ScoredRecord) ([]domain.ScoredRecord, error) {
	if s.reranker == nil || len(results) == 0 {
		return results, nil
	}

	documents := make([]string, len(results))
	for i, rec := range results {
		documents[i] = rec.Content()
	}

	ranked, err := s.reranker.Rerank(ctx, query, documents, len(results))
	if err != nil {
		return results, err
	}

	reordered := make([]domain.ScoredRecord, 0, len(ranked))
	for _, doc := range ranked {
		rec := results[doc.Index]
		rec.Score = doc.Score
		reordered = append(reordered, rec)
	}
	return reordered, nil
}

// groundingPrompt embeds the retrieved documents verbatim with source
// attribution. With no matches it says so explicitly instead of
// letting the model fabricate context.
func groundingPrompt(results []domain.ScoredRecord) string {
	var sb strings.Builder
	sb.WriteString("Answer the user's question using the context below. " +
		"Cite the sources you use. If the context does not cover the question, say so.\n\n")

	if len(results) == 0 {
		sb.WriteString("No relevant context was found in the knowledge base for this question. " +
			"Tell the user that, and answer only from general knowledge if you safely can.")
		return sb.String()
	}

	sb.WriteString("Context:\n")
	for i, rec := range results {
		fmt.Fprintf(&sb, "\n[%d] SOURCE: %s\n%s\n", i+1, rec.SourceLabel(), rec.Content())
	}
	return sb.String()
}
