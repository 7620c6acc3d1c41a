package services

import (
	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

// Default models for the built-in agents. The chat model can be
// overridden per config; the registry table remains the only place a
// routing decision's model is resolved from.
const (
	DefaultChatModel     = "gpt-4o-mini"
	DefaultLinkedInModel = "gpt-4o-mini"
)

// DefaultAgentRegistry builds the registry the default configuration
// ships with. chatModel and linkedinModel fall back to the package
// defaults when empty.
func DefaultAgentRegistry(chatModel, linkedinModel string) (*domain.AgentRegistry, error) {
	if chatModel == "" {
		chatModel = DefaultChatModel
	}
	if linkedinModel == "" {
		linkedinModel = DefaultLinkedInModel
	}

	return domain.NewAgentRegistry(
		domain.AgentConfig{
			Name:  domain.AgentKnowledgeBase,
			Model: chatModel,
			Description: "Questions that should be answered from the ingested " +
				"knowledge base: articles, notes, documentation and other saved material.",
		},
		domain.AgentConfig{
			Name:  domain.AgentLinkedIn,
			Model: linkedinModel,
			Description: "Requests to draft, rewrite or improve a LinkedIn post " +
				"or other short-form professional social media content.",
		},
		domain.AgentConfig{
			Name:  domain.AgentGeneral,
			Model: chatModel,
			Description: "Anything else: general questions, conversation and " +
				"requests that need neither the knowledge base nor a posting style.",
		},
	)
}
