package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

func testRegistry(t *testing.T) *domain.AgentRegistry {
	t.Helper()
	registry, err := domain.NewAgentRegistry(
		domain.AgentConfig{Name: domain.AgentKnowledgeBase, Model: "kb-model", Description: "saved articles"},
		domain.AgentConfig{Name: domain.AgentLinkedIn, Model: "li-model", Description: "linkedin posts"},
		domain.AgentConfig{Name: domain.AgentGeneral, Model: "gen-model", Description: "everything else"},
	)
	require.NoError(t, err)
	return registry
}

func TestRoute_ModelComesFromRegistry(t *testing.T) {
	// The classifier tries to smuggle in its own model; the decision
	// must carry the registry's model for the selected agent.
	llm := &mockLLM{structuredResponse: json.RawMessage(
		`{"selectedAgent":"linkedin","agentQuery":"write a post about Go"}`,
	)}
	router, err := NewRouterService(llm, testRegistry(t), "")
	require.NoError(t, err)

	decision, err := router.Route(context.Background(), "hey can you write a post about Go")
	require.NoError(t, err)

	assert.Equal(t, domain.AgentLinkedIn, decision.SelectedAgent)
	assert.Equal(t, "write a post about Go", decision.AgentQuery)
	assert.Equal(t, "li-model", decision.Model)
}

func TestRoute_SystemPromptEnumeratesAgents(t *testing.T) {
	llm := &mockLLM{structuredResponse: json.RawMessage(
		`{"selectedAgent":"general","agentQuery":"q"}`,
	)}
	router, err := NewRouterService(llm, testRegistry(t), "")
	require.NoError(t, err)

	_, err = router.Route(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, llm.structuredMessages, 1)
	system := llm.structuredMessages[0][0].Content
	for _, want := range []string{"knowledgeBase", "linkedin", "general", "saved articles", "linkedin posts"} {
		assert.True(t, strings.Contains(system, want), "prompt missing %q", want)
	}
}

func TestRoute_EmptyQuery(t *testing.T) {
	router, err := NewRouterService(&mockLLM{}, testRegistry(t), "")
	require.NoError(t, err)

	_, err = router.Route(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrClassification)
}

func TestRoute_LLMFailure(t *testing.T) {
	llm := &mockLLM{structuredErr: errors.New("provider down")}
	router, err := NewRouterService(llm, testRegistry(t), "")
	require.NoError(t, err)

	_, err = router.Route(context.Background(), "q")
	assert.ErrorIs(t, err, domain.ErrClassification)
}

func TestRoute_InvalidPayloadRejected(t *testing.T) {
	cases := map[string]string{
		"missing agentQuery":   `{"selectedAgent":"general"}`,
		"empty agentQuery":     `{"selectedAgent":"general","agentQuery":"  "}`,
		"unregistered agent":   `{"selectedAgent":"shadow","agentQuery":"q"}`,
		"extra field":          `{"selectedAgent":"general","agentQuery":"q","model":"gpt-999"}`,
		"not an object at all": `"general"`,
		"malformed json":       `{`,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			llm := &mockLLM{structuredResponse: json.RawMessage(payload)}
			router, err := NewRouterService(llm, testRegistry(t), "")
			require.NoError(t, err)

			_, err = router.Route(context.Background(), "q")
			assert.ErrorIs(t, err, domain.ErrClassification)
		})
	}
}

func TestRoute_UsesRouterModel(t *testing.T) {
	llm := &mockLLM{structuredResponse: json.RawMessage(
		`{"selectedAgent":"general","agentQuery":"q"}`,
	)}
	router, err := NewRouterService(llm, testRegistry(t), "router-model")
	require.NoError(t, err)

	_, err = router.Route(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, llm.structuredOptions, 1)
	assert.Equal(t, "router-model", llm.structuredOptions[0].Model)
}
