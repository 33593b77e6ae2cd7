package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/clauserisk/internal/cache"
	"github.com/ppiankov/clauserisk/internal/llm"
	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/model"
	"github.com/ppiankov/clauserisk/internal/worker"
)

// NewAnalyzerFromConfig builds the semantic analyzer described by
// cfg.Semantic, with the judgment cache from cfg.Cache. It returns a nil
// analyzer when no provider is configured.
func NewAnalyzerFromConfig(cfg *model.Config, logger logging.Logger) (*llm.Analyzer, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.Semantic))
	if err != nil {
		return nil, fmt.Errorf("initialize %s provider: %w", cfg.Semantic.Provider, err)
	}
	if provider == nil {
		return nil, nil
	}

	opts := []llm.Option{
		llm.WithLogger(logger.Named("llm")),
		llm.WithLimiter(worker.NewLimiter(cfg.Semantic.RequestsPerSecond, cfg.Semantic.Burst)),
	}

	if cfg.Cache.Enabled {
		dir, err := cacheDir(cfg.Cache.Dir)
		if err != nil {
			logger.Warn("judgment cache disabled", logging.Err(err))
		} else {
			c := cache.NewLayeredCache(cfg.Cache.MemoryTTL, dir, cfg.Cache.DiskTTL)
			opts = append(opts, llm.WithCache(c, cfg.Cache.DiskTTL))
		}
	}

	return llm.NewAnalyzer(provider, opts...), nil
}

// cacheDir resolves the judgment cache directory, defaulting to
// ~/.clauserisk/cache
func cacheDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".clauserisk", "cache"), nil
}
