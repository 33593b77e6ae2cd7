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

func TestAnthropicProvider_Judge(t *testing.T) {
	var got anthropicRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{
			"id": "msg_123",
			"type": "message",
			"content": [{"type": "text", "text": ` + mustQuote(t, validJudgment) + `}],
			"model": "claude-3-5-haiku-20241022",
			"usage": {"input_tokens": 50, "output_tokens": 30}
		}`))
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(Config{APIKey: "test-key", BaseURL: server.URL + "/", Timeout: 5})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())

	resp, err := p.Judge(context.Background(), JudgeRequest{ClauseText: "clause text", Language: model.LanguageEnglish})
	require.NoError(t, err)
	assert.Equal(t, 80, resp.TokensUsed)

	j, err := ParseJudgment(resp.Content)
	require.NoError(t, err)
	assert.Equal(t, "one-sided", j.Favor)

	assert.Equal(t, "claude-3-5-haiku-20241022", got.Model)
	assert.InDelta(t, Temperature, got.Temperature, 1e-9)
	assert.Equal(t, systemPrompt, got.System)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, got.Messages[0].Content, "clause text")
}

func TestAnthropicProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`))
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(Config{APIKey: "bad", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Judge(context.Background(), JudgeRequest{ClauseText: "clause"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authentication_error")
	assert.False(t, p.IsAvailable(context.Background()))
}

func TestAnthropicProvider_NoText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"m","type":"message","content":[],"model":"x"}`))
	}))
	defer server.Close()

	p, err := NewAnthropicProvider(Config{APIKey: "k", BaseURL: server.URL})
	require.NoError(t, err)

	_, err = p.Judge(context.Background(), JudgeRequest{ClauseText: "clause"})
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAnthropicProvider_RequiresKey(t *testing.T) {
	_, err := NewAnthropicProvider(Config{})
	assert.Error(t, err)
}

func mustQuote(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}
