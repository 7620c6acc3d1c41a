// Package openai provides a language model adapter using the OpenAI
// chat completions API, including SSE streaming and schema-constrained
// structured outputs.
package openai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 120 * time.Second
)

// Config holds configuration for the OpenAI LLM service.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the fallback model when a call does not name one.
	Model string

	// Timeout is the request timeout (default: 120s). Streaming calls
	// are bounded by ctx instead.
	Timeout time.Duration
}

// LLMService generates text using the OpenAI chat completions API.
type LLMService struct {
	client    *http.Client
	streaming *http.Client
	baseURL   string
	apiKey    string
	model     string
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []apiMessage    `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	Stream         bool            `json:"stream,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string      `json:"type"`
	JSONSchema *jsonSchema `json:"json_schema,omitempty"`
}

type jsonSchema struct {
	Name   string          `json:"name"`
	Strict bool            `json:"strict"`
	Schema json.RawMessage `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewLLMService creates a new OpenAI LLM service.
func NewLLMService(cfg Config) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &LLMService{
		client:    &http.Client{Timeout: cfg.Timeout},
		streaming: &http.Client{},
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
	}, nil
}

// Chat conducts a conversation and returns the complete response.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	resp, err := s.complete(ctx, s.buildRequest(messages, opts, nil))
	if err != nil {
		return "", err
	}
	return resp, nil
}

// ChatStructured requests a response constrained to the given JSON
// schema and returns the raw JSON payload.
func (s *LLMService) ChatStructured(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions, schemaName string, schema json.RawMessage) (json.RawMessage, error) {
	format := &responseFormat{
		Type: "json_schema",
		JSONSchema: &jsonSchema{
			Name:   schemaName,
			Strict: true,
			Schema: schema,
		},
	}
	resp, err := s.complete(ctx, s.buildRequest(messages, opts, format))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(resp), nil
}

// ChatStream conducts a conversation and returns a live token stream.
func (s *LLMService) ChatStream(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (domain.TokenStream, error) {
	reqBody := s.buildRequest(messages, opts, nil)
	reqBody.Stream = true

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := s.streaming.Do(req)
	if err != nil {
		return nil, domain.MarkTransient(fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err))
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, statusError(resp.StatusCode, string(body))
	}

	return &sseStream{body: resp.Body, scanner: newSSEScanner(resp.Body)}, nil
}

func (s *LLMService) buildRequest(messages []driven.ChatMessage, opts driven.ChatOptions, format *responseFormat) chatRequest {
	model := opts.Model
	if model == "" {
		model = s.model
	}

	apiMessages := make([]apiMessage, len(messages))
	for i, m := range messages {
		apiMessages[i] = apiMessage{Role: m.Role, Content: m.Content}
	}

	req := chatRequest{
		Model:          model,
		Messages:       apiMessages,
		MaxTokens:      opts.MaxTokens,
		ResponseFormat: format,
	}
	if opts.Temperature > 0 {
		req.Temperature = &opts.Temperature
	}
	return req
}

func (s *LLMService) complete(ctx context.Context, reqBody chatRequest) (string, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.MarkTransient(fmt.Errorf("%w: %v", domain.ErrLLMUnavailable, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.MarkTransient(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		var chatResp chatResponse
		if json.Unmarshal(body, &chatResp) == nil && chatResp.Error != nil {
			return "", statusError(resp.StatusCode, chatResp.Error.Message)
		}
		return "", statusError(resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai chat: no choices returned")
	}
	return chatResp.Choices[0].Message.Content, nil
}

func statusError(status int, msg string) error {
	err := fmt.Errorf("openai chat: status %d: %s", status, msg)
	if status == http.StatusTooManyRequests || status >= 500 {
		return domain.MarkTransient(err)
	}
	return err
}

// sseStream adapts an OpenAI SSE response body to domain.TokenStream.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func newSSEScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Individual SSE events can carry large deltas.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}

// Recv returns the next non-empty content delta. It returns io.EOF
// after the terminal [DONE] event or when the body ends.
func (s *sseStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", domain.MarkTransient(fmt.Errorf("read stream: %w", err))
	}
	return "", io.EOF
}

// Close aborts the stream and releases the connection.
func (s *sseStream) Close() error {
	s.done = true
	return s.body.Close()
}
