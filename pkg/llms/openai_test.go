package llms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Javi111003/OlivIA-RAG/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAITestConfig(baseURL string) *config.LLMConfig {
	cfg := &config.LLMConfig{
		Provider: config.LLMProviderOpenAI,
		Model:    "gpt-4o-mini",
		APIKey:   "sk-test",
		BaseURL:  baseURL,
	}
	cfg.SetDefaults()
	cfg.BaseURL = baseURL
	return cfg
}

func TestOpenAIGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req openAIRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		resp := openAIResponse{
			Choices: []openAIChoice{{
				Message: openAIMessage{Role: "assistant", Content: "a^2 + b^2 = c^2"},
			}},
			Usage: openAIUsage{TotalTokens: 42},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, err := NewOpenAIProviderFromConfig(openAITestConfig(server.URL))
	require.NoError(t, err)

	text, tokens, err := provider.Generate(context.Background(), []Message{
		System("You are a math tutor."),
		User("State the Pythagorean theorem."),
	})
	require.NoError(t, err)
	assert.Equal(t, "a^2 + b^2 = c^2", text)
	assert.Equal(t, 42, tokens)
}

func TestOpenAIGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer server.Close()

	provider, err := NewOpenAIProviderFromConfig(openAITestConfig(server.URL))
	require.NoError(t, err)

	_, _, err = provider.Generate(context.Background(), []Message{User("hi")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProviderFromConfig(&config.LLMConfig{Model: "gpt-4o-mini"})
	assert.Error(t, err)
}

func TestCreateLLMFromConfig(t *testing.T) {
	reg := NewLLMRegistry()

	cfg := &config.LLMConfig{Provider: config.LLMProviderOllama, Model: "llama3.1", BaseURL: "http://localhost:11434"}
	cfg.SetDefaults()

	provider, err := reg.CreateLLMFromConfig("default", cfg)
	require.NoError(t, err)
	assert.Equal(t, "llama3.1", provider.GetModelName())

	got, ok := reg.Get("default")
	require.True(t, ok)
	assert.Equal(t, provider, got)

	_, err = reg.CreateLLMFromConfig("bad", &config.LLMConfig{Provider: "nope"})
	assert.Error(t, err)
}
