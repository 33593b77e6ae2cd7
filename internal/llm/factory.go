package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/clauserisk/internal/model"
)

// NewProvider creates a provider from configuration. An empty provider
// name disables the semantic analyzer and returns nil, nil.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "openai":
		return NewOpenAIProvider(config)

	case "groq":
		return NewGroqProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, groq, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.SemanticConfig to llm.Config
func ConfigFromModel(sc model.SemanticConfig) Config {
	return Config{
		Provider:   sc.Provider,
		Model:      sc.Model,
		APIKey:     sc.APIKey,
		BaseURL:    sc.BaseURL,
		Timeout:    sc.Timeout,
		MaxTokens:  sc.MaxTokens,
		HTTPProxy:  sc.HTTPProxy,
		HTTPSProxy: sc.HTTPSProxy,
	}
}
