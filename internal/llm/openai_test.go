package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/clauserisk/internal/model"
)

// capturedChat records the parts of a chat request the tests assert on
type capturedChat struct {
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int     `json:"max_tokens"`
	ResponseFormat struct {
		Type       string `json:"type"`
		JSONSchema *struct {
			Name   string `json:"name"`
			Strict bool   `json:"strict"`
		} `json:"json_schema"`
	} `json:"response_format"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newChatServer(t *testing.T, content string, captured *capturedChat) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if captured != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(captured))
		}

		resp := openai.ChatCompletionResponse{
			ID:     "chatcmpl-123",
			Object: "chat.completion",
			Model:  "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			}},
			Usage: openai.Usage{TotalTokens: 100},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenAIProvider_Judge(t *testing.T) {
	var got capturedChat
	server := newChatServer(t, validJudgment, &got)
	defer server.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
	assert.Equal(t, openai.GPT4oMini, p.Model())

	resp, err := p.Judge(context.Background(), JudgeRequest{
		ClauseText: "Section 1. The Seller shall assign all intellectual property to the Buyer.",
		Language:   model.LanguageEnglish,
	})
	require.NoError(t, err)

	j, err := ParseJudgment(resp.Content)
	require.NoError(t, err)
	assert.Equal(t, "assigned", j.Ownership)
	assert.Equal(t, 100, resp.TokensUsed)

	assert.Equal(t, openai.GPT4oMini, got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	assert.Equal(t, 600, got.MaxTokens)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	require.NotNil(t, got.ResponseFormat.JSONSchema)
	assert.Equal(t, "clause_judgment", got.ResponseFormat.JSONSchema.Name)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "The Seller shall assign")
}

func TestGroqProvider_UsesJSONObjectMode(t *testing.T) {
	var got capturedChat
	server := newChatServer(t, validJudgment, &got)
	defer server.Close()

	p, err := NewGroqProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	require.NoError(t, err)
	assert.Equal(t, "groq", p.Name())
	assert.Equal(t, groqDefaultModel, p.Model())

	_, err = p.Judge(context.Background(), JudgeRequest{ClauseText: "clause", Language: model.LanguageEnglish})
	require.NoError(t, err)

	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	assert.Nil(t, got.ResponseFormat.JSONSchema)
	assert.Equal(t, groqDefaultModel, got.Model)
}

func TestGroqProvider_DefaultBaseURL(t *testing.T) {
	p, err := NewGroqProvider(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, groqBaseURL, p.config.BaseURL)
}

func TestOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(Config{})
	assert.Error(t, err)
	_, err = NewGroqProvider(Config{})
	assert.Error(t, err)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	require.NoError(t, err)

	_, err = p.Judge(context.Background(), JudgeRequest{ClauseText: "clause"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer server.Close()

	p, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: server.URL, Timeout: 5})
	require.NoError(t, err)

	_, err = p.Judge(context.Background(), JudgeRequest{ClauseText: "clause"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
