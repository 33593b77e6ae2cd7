package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/clauserisk/internal/cache"
	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/model"
	"github.com/ppiankov/clauserisk/internal/worker"
)

// Analyzer produces validated clause judgments. It wraps a provider with
// an optional cache and rate limiter. A nil provider disables it.
type Analyzer struct {
	provider Provider
	cache    cache.Cache
	cacheTTL time.Duration
	limiter  *worker.Limiter
	logger   logging.Logger
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithCache stores validated judgments in c for ttl
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(a *Analyzer) {
		a.cache = c
		a.cacheTTL = ttl
	}
}

// WithLimiter rate-limits provider calls, keyed by provider name
func WithLimiter(l *worker.Limiter) Option {
	return func(a *Analyzer) { a.limiter = l }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// NewAnalyzer creates an analyzer around provider
func NewAnalyzer(provider Provider, opts ...Option) *Analyzer {
	a := &Analyzer{
		provider: provider,
		logger:   logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IsEnabled returns true if a provider is configured
func (a *Analyzer) IsEnabled() bool {
	return a != nil && a.provider != nil
}

// ProviderName returns the configured provider name, or "" when disabled
func (a *Analyzer) ProviderName() string {
	if !a.IsEnabled() {
		return ""
	}
	return a.provider.Name()
}

// Judge returns the validated judgment of one clause. Errors wrap either
// ErrProviderUnavailable or ErrMalformedResponse and are meant to be
// recorded as diagnostics, never to fail an analysis.
func (a *Analyzer) Judge(ctx context.Context, clauseText string, lang model.LanguageTag) (*model.Judgment, error) {
	if !a.IsEnabled() {
		return nil, fmt.Errorf("%w: no provider configured", ErrProviderUnavailable)
	}

	name := a.provider.Name()
	key := cache.CacheKey(name, a.provider.Model(), string(lang), clauseText)

	if j, ok := a.cached(key); ok {
		a.logger.Debug("judgment cache hit", logging.String("provider", name))
		return j, nil
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, name); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %w", ErrProviderUnavailable, err)
		}
	}

	start := time.Now()
	resp, err := a.provider.Judge(ctx, JudgeRequest{ClauseText: clauseText, Language: lang})
	if err != nil {
		a.logger.Warn("semantic analyzer call failed",
			logging.String("provider", name),
			logging.Duration("took", time.Since(start)),
			logging.Err(err))
		if errors.Is(err, ErrMalformedResponse) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	j, err := ParseJudgment(resp.Content)
	if err != nil {
		a.logger.Warn("semantic analyzer returned malformed judgment",
			logging.String("provider", name),
			logging.String("model", resp.Model),
			logging.Err(err))
		return nil, err
	}

	a.logger.Debug("semantic judgment received",
		logging.String("provider", name),
		logging.String("model", resp.Model),
		logging.Int("tokens", resp.TokensUsed),
		logging.Duration("took", time.Since(start)))

	a.store(key, j)
	return &j, nil
}

func (a *Analyzer) cached(key string) (*model.Judgment, bool) {
	if a.cache == nil {
		return nil, false
	}
	data, ok := a.cache.Get(key)
	if !ok {
		return nil, false
	}
	j, err := ParseJudgment(string(data))
	if err != nil {
		_ = a.cache.Delete(key)
		return nil, false
	}
	return &j, true
}

func (a *Analyzer) store(key string, j model.Judgment) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(j)
	if err != nil {
		return
	}
	if err := a.cache.Set(key, data, a.cacheTTL); err != nil {
		a.logger.Warn("judgment cache write failed", logging.Err(err))
	}
}
