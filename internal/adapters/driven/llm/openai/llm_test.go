package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tessera-labs/tessera-cli/internal/core/domain"
	"github.com/tessera-labs/tessera-cli/internal/core/ports/driven"
)

func TestChat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])

		messages := body["messages"].([]any)
		require.Len(t, messages, 2)
		first := messages[0].(map[string]any)
		assert.Equal(t, "system", first["role"])

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "hello there"}, "finish_reason": "stop"},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	text, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: driven.RoleSystem, Content: "be brief"},
		{Role: driven.RoleUser, Content: "hi"},
	}, driven.ChatOptions{Model: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestChat_FallbackModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultModel, body["model"])

		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ok"}}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
}

func TestChatStructured(t *testing.T) {
	schema := json.RawMessage(`{"type":"object","properties":{"agent":{"type":"string"}}}`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		format := body["response_format"].(map[string]any)
		assert.Equal(t, "json_schema", format["type"])
		js := format["json_schema"].(map[string]any)
		assert.Equal(t, "routing", js["name"])
		assert.Equal(t, true, js["strict"])

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": `{"agent":"general"}`}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	raw, err := s.ChatStructured(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "route me"}}, driven.ChatOptions{}, "routing", schema)
	require.NoError(t, err)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(raw, &parsed))
	assert.Equal(t, "general", parsed["agent"])
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"Hel"}}]}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{"content":"lo"}}]}`+"\n\n")
		_, _ = io.WriteString(w, `data: {"choices":[{"delta":{},"finish_reason":"stop"}]}`+"\n\n")
		_, _ = io.WriteString(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	stream, err := s.ChatStream(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{})
	require.NoError(t, err)
	defer stream.Close()

	var got []string
	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, fragment)
	}
	assert.Equal(t, []string{"Hel", "lo"}, got)

	// A drained stream keeps reporting EOF.
	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestChatStream_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.ChatStream(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
}

func TestChat_ServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "server exploded", "type": "server_error"},
		})
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{})
	require.Error(t, err)
	assert.True(t, domain.IsTransient(err))
	assert.Contains(t, err.Error(), "server exploded")
}

func TestChat_BadRequestIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad schema", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	s, err := NewLLMService(Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = s.Chat(context.Background(), []driven.ChatMessage{{Role: driven.RoleUser, Content: "hi"}}, driven.ChatOptions{})
	require.Error(t, err)
	assert.False(t, domain.IsTransient(err))
}
