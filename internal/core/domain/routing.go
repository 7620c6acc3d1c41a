package domain

import "fmt"

// AgentType identifies a retrieval+generation strategy.
type AgentType string

// Registered agent types. The registry is the closed set; these
// constants name the agents the default configuration ships with.
const (
	AgentKnowledgeBase AgentType = "knowledgeBase"
	AgentLinkedIn      AgentType = "linkedin"
	AgentGeneral       AgentType = "general"
)

// AgentConfig is a static registry entry. Its description feeds the
// classification prompt; its model is the only place a routing
// decision's model can come from.
type AgentConfig struct {
	Name        AgentType
	Model       string
	Description string
}

// AgentRegistry is the closed set of agents, constructed once at
// process start and passed by reference. Read-only after construction.
type AgentRegistry struct {
	agents map[AgentType]AgentConfig
	order  []AgentType
}

// NewAgentRegistry builds a registry from the given configs.
// Names must be unique and non-empty, models non-empty.
func NewAgentRegistry(configs ...AgentConfig) (*AgentRegistry, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: no agents configured", ErrInvalidInput)
	}

	r := &AgentRegistry{
		agents: make(map[AgentType]AgentConfig, len(configs)),
		order:  make([]AgentType, 0, len(configs)),
	}
	for _, cfg := range configs {
		if cfg.Name == "" {
			return nil, fmt.Errorf("%w: agent with empty name", ErrInvalidInput)
		}
		if cfg.Model == "" {
			return nil, fmt.Errorf("%w: agent %q has no model", ErrInvalidInput, cfg.Name)
		}
		if _, exists := r.agents[cfg.Name]; exists {
			return nil, fmt.Errorf("%w: duplicate agent %q", ErrInvalidInput, cfg.Name)
		}
		r.agents[cfg.Name] = cfg
		r.order = append(r.order, cfg.Name)
	}
	return r, nil
}

// Lookup returns the config for an agent name.
func (r *AgentRegistry) Lookup(name AgentType) (AgentConfig, bool) {
	cfg, ok := r.agents[name]
	return cfg, ok
}

// List returns all configs in registration order.
func (r *AgentRegistry) List() []AgentConfig {
	out := make([]AgentConfig, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.agents[name])
	}
	return out
}

// Names returns the registered agent names in registration order.
func (r *AgentRegistry) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, string(name))
	}
	return out
}

// RoutingDecision is the outcome of query classification.
// Invariants: AgentQuery is non-empty, SelectedAgent is registered, and
// Model comes from the registry entry for SelectedAgent, never from the
// classifier output.
type RoutingDecision struct {
	SelectedAgent AgentType
	AgentQuery    string
	Model         string
}
