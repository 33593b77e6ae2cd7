package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauserisk/internal/model"
)

func TestOllamaProvider_Judge(t *testing.T) {
	var got ollamaRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3.1",
			Response:        validJudgment,
			Done:            true,
			PromptEvalCount: 10,
			EvalCount:       20,
		})
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "llama3.1", Timeout: 5})
	require.NoError(t, err)

	resp, err := p.Judge(context.Background(), JudgeRequest{ClauseText: "clause", Language: model.LanguageHindi})
	require.NoError(t, err)
	assert.Equal(t, 30, resp.TokensUsed)

	_, err = ParseJudgment(resp.Content)
	assert.NoError(t, err)

	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.InDelta(t, Temperature, got.Options.Temperature, 1e-9)
	assert.Contains(t, got.Prompt, "language: Hindi")
}

func TestOllamaProvider_RequiresModel(t *testing.T) {
	_, err := NewOllamaProvider(Config{})
	assert.Error(t, err)
}

func TestOllamaProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model 'nope' not found"}`))
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "nope"})
	require.NoError(t, err)

	_, err = p.Judge(context.Background(), JudgeRequest{ClauseText: "clause"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestOllamaProvider_IsAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.1:8b"},{"name":"mistral:latest"}]}`))
	}))
	defer server.Close()

	tests := []struct {
		model string
		want  bool
	}{
		{"llama3.1:8b", true},
		{"mistral", true},
		{"qwen2.5", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: tt.model})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.IsAvailable(context.Background()))
		})
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	require.NoError(t, err)
	assert.Nil(t, p)

	for name, want := range map[string]string{
		"openai":    "openai",
		"groq":      "groq",
		"Anthropic": "anthropic",
		"claude":    "anthropic",
		"ollama":    "ollama",
	} {
		p, err := NewProvider(Config{Provider: name, APIKey: "k", Model: "m"})
		require.NoError(t, err, name)
		assert.Equal(t, want, p.Name())
	}

	_, err = NewProvider(Config{Provider: "cohere"})
	assert.Error(t, err)
}

func TestConfigFromModel(t *testing.T) {
	sc := model.DefaultConfig().Semantic
	sc.Provider = "groq"
	sc.APIKey = "secret"

	c := ConfigFromModel(sc)
	assert.Equal(t, "groq", c.Provider)
	assert.Equal(t, "secret", c.APIKey)
	assert.Equal(t, sc.Timeout, c.Timeout)
	assert.Equal(t, sc.MaxTokens, c.MaxTokens)
}

func TestOllamaProvider_PartialResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"m","response":"{\"owner","done":false}`))
	}))
	defer server.Close()

	p, err := NewOllamaProvider(Config{BaseURL: server.URL, Model: "m"})
	require.NoError(t, err)

	_, err = p.Judge(context.Background(), JudgeRequest{ClauseText: "clause"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
