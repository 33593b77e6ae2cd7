// Package llm talks to external semantic analyzers. A provider returns the
// raw model output for one clause; judgment.go turns it into a validated
// model.Judgment or rejects it.
package llm

import (
	"context"
	"errors"

	"github.com/ppiankov/clauserisk/internal/model"
)

// Semantic failures. Neither is fatal: the pipeline falls back to
// rule-based scoring and records a diagnostic.
var (
	ErrProviderUnavailable = errors.New("semantic analyzer unavailable")
	ErrMalformedResponse   = errors.New("malformed semantic analyzer response")
)

// Temperature used for every judgment request
const Temperature = 0.2

// Provider defines the interface for semantic analyzer backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// Model returns the model requests are sent to
	Model() string

	// Judge sends one clause and returns the raw response content
	Judge(ctx context.Context, req JudgeRequest) (*JudgeResponse, error)

	// IsAvailable checks if the provider is configured and reachable
	IsAvailable(ctx context.Context) bool
}

// JudgeRequest contains the input for one clause judgment
type JudgeRequest struct {
	ClauseText string
	Language   model.LanguageTag

	// Prompt overrides the default prompt when non-empty
	Prompt string

	// MaxTokens limits the response length
	MaxTokens int
}

// JudgeResponse is the unparsed provider output
type JudgeResponse struct {
	Content    string
	Model      string
	TokensUsed int
}

// Config holds provider configuration
type Config struct {
	// Provider name: "openai", "groq", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 600,
	}
}

func (c Config) maxTokens(requested int) int {
	if requested > 0 {
		return requested
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 600
}
