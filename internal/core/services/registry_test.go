package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
)

func TestDefaultAgentRegistry(t *testing.T) {
	registry, err := DefaultAgentRegistry("chat-x", "li-y")
	require.NoError(t, err)

	assert.Equal(t, []string{"knowledgeBase", "linkedin", "general"}, registry.Names())

	kb, ok := registry.Lookup(domain.AgentKnowledgeBase)
	require.True(t, ok)
	assert.Equal(t, "chat-x", kb.Model)

	li, ok := registry.Lookup(domain.AgentLinkedIn)
	require.True(t, ok)
	assert.Equal(t, "li-y", li.Model)
}

func TestDefaultAgentRegistry_Fallbacks(t *testing.T) {
	registry, err := DefaultAgentRegistry("", "")
	require.NoError(t, err)

	general, ok := registry.Lookup(domain.AgentGeneral)
	require.True(t, ok)
	assert.Equal(t, DefaultChatModel, general.Model)
}
