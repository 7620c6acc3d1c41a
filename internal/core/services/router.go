package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
	"github.com/tessera-labs/tessera-cli/internal/logger"
)

// routingSchemaName labels the structured-output schema in provider
// requests.
const routingSchemaName = "routing_decision"

// RouterService classifies a user query into one of the registered
// agents with a structured classification call.
type RouterService struct {
	llm      driven.LLMService
	registry *domain.AgentRegistry

	// routerModel runs classification; it is independent of the agent
	// models in the registry.
	routerModel string

	schema    json.RawMessage
	validator *gojsonschema.Schema
}

// routingPayload is the shape the classifier must return. The model is
// deliberately absent: it is resolved from the registry afterwards.
type routingPayload struct {
	SelectedAgent string `json:"selectedAgent"`
	AgentQuery    string `json:"agentQuery"`
}

// NewRouterService creates a router over the given registry.
func NewRouterService(llm driven.LLMService, registry *domain.AgentRegistry, routerModel string) (*RouterService, error) {
	if llm == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if registry == nil {
		return nil, fmt.Errorf("%w: registry is required", domain.ErrInvalidInput)
	}
	if routerModel == "" {
		routerModel = DefaultChatModel
	}

	schema, err := buildRoutingSchema(registry)
	if err != nil {
		return nil, fmt.Errorf("building routing schema: %w", err)
	}
	validator, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schema))
	if err != nil {
		return nil, fmt.Errorf("compiling routing schema: %w", err)
	}

	return &RouterService{
		llm:         llm,
		registry:    registry,
		routerModel: routerModel,
		schema:      schema,
		validator:   validator,
	}, nil
}

// Route classifies the query and returns the routing decision. The
// decision's model always comes from the registry entry for the
// selected agent, never from the classifier output.
func (s *RouterService) Route(ctx context.Context, query string) (*domain.RoutingDecision, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrClassification)
	}

	logger.Section("Query Routing")
	logger.Debug("classifying query: %q", query)

	messages := []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: s.systemPrompt()},
		{Role: driven.RoleUser, Content: query},
	}
	raw, err := s.llm.ChatStructured(ctx, messages, driven.ChatOptions{Model: s.routerModel}, routingSchemaName, s.schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrClassification, err)
	}

	// Validate client-side before trusting the payload.
	result, err := s.validator.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: validating payload: %v", domain.ErrClassification, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: payload does not match schema: %v", domain.ErrClassification, result.Errors())
	}

	var payload routingPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: decoding payload: %v", domain.ErrClassification, err)
	}
	if strings.TrimSpace(payload.AgentQuery) == "" {
		return nil, fmt.Errorf("%w: empty agent query", domain.ErrClassification)
	}

	// Defensive membership check even though the schema enum should
	// constrain the value.
	agent := domain.AgentType(payload.SelectedAgent)
	cfg, ok := s.registry.Lookup(agent)
	if !ok {
		return nil, fmt.Errorf("%w: classifier selected unregistered agent %q", domain.ErrClassification, payload.SelectedAgent)
	}

	decision := &domain.RoutingDecision{
		SelectedAgent: agent,
		AgentQuery:    strings.TrimSpace(payload.AgentQuery),
		Model:         cfg.Model,
	}
	logger.Debug("routed to %s (model %s)", decision.SelectedAgent, decision.Model)
	return decision, nil
}

// systemPrompt enumerates the registered agents from the registry, so
// adding an agent requires only a registry entry.
func (s *RouterService) systemPrompt() string {
	var sb strings.Builder
	sb.WriteString("You are a query classifier. Pick the single best agent for the user's request.\n\nAgents:\n")
	for _, cfg := range s.registry.List() {
		fmt.Fprintf(&sb, "- %s: %s\n", cfg.Name, cfg.Description)
	}
	sb.WriteString("\nReturn the selected agent and a refined, self-contained version of the user's query.")
	return sb.String()
}

// buildRoutingSchema constrains selectedAgent to the registered names.
func buildRoutingSchema(registry *domain.AgentRegistry) (json.RawMessage, error) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"selectedAgent": map[string]any{
				"type": "string",
				"enum": registry.Names(),
			},
			"agentQuery": map[string]any{
				"type": "string",
			},
		},
		"required":             []string{"selectedAgent", "agentQuery"},
		"additionalProperties": false,
	}
	return json.Marshal(schema)
}
