package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAgents() []AgentConfig {
	return []AgentConfig{
		{Name: AgentKnowledgeBase, Model: "gpt-4o-mini", Description: "Queries the knowledge base"},
		{Name: AgentLinkedIn, Model: "ft:gpt-4o-mini:custom", Description: "LinkedIn content"},
		{Name: AgentGeneral, Model: "gpt-4o-mini", Description: "Everything else"},
	}
}

func TestNewAgentRegistry(t *testing.T) {
	reg, err := NewAgentRegistry(testAgents()...)
	require.NoError(t, err)

	cfg, ok := reg.Lookup(AgentLinkedIn)
	require.True(t, ok)
	assert.Equal(t, "ft:gpt-4o-mini:custom", cfg.Model)

	_, ok = reg.Lookup("finance")
	assert.False(t, ok)
}

func TestNewAgentRegistry_Empty(t *testing.T) {
	_, err := NewAgentRegistry()
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewAgentRegistry_Duplicate(t *testing.T) {
	agents := testAgents()
	agents = append(agents, agents[0])
	_, err := NewAgentRegistry(agents...)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNewAgentRegistry_MissingModel(t *testing.T) {
	_, err := NewAgentRegistry(AgentConfig{Name: "x", Description: "no model"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAgentRegistry_OrderStable(t *testing.T) {
	reg, err := NewAgentRegistry(testAgents()...)
	require.NoError(t, err)

	assert.Equal(t, []string{"knowledgeBase", "linkedin", "general"}, reg.Names())

	list := reg.List()
	require.Len(t, list, 3)
	assert.Equal(t, AgentKnowledgeBase, list[0].Name)
	assert.Equal(t, AgentGeneral, list[2].Name)
}
