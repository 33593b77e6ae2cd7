package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauserisk/internal/audit"
	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/model"
	"github.com/ppiankov/clauserisk/internal/pipeline"
)

// analysisFlags are shared by every command that runs the pipeline
type analysisFlags struct {
	workers     int
	llmEnabled  bool
	llmProvider string
	llmModel    string
	mergeMode   string
	noCache     bool
	noFooter    bool
	auditLog    bool
	userAgent   string
	maxBytes    int64
	loadTimeout time.Duration
}

func (f *analysisFlags) register(cmd *cobra.Command) {
	defaults := model.DefaultConfig()

	// Analysis flags
	cmd.Flags().IntVar(&f.workers, "workers", defaults.Analysis.Workers, "per-clause workers (1 = sequential)")
	cmd.Flags().BoolVar(&f.noFooter, "no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().BoolVar(&f.auditLog, "audit", false, "append results to the audit log")

	// Loader flags
	cmd.Flags().StringVar(&f.userAgent, "ua", defaults.Loader.UserAgent, "HTTP User-Agent for URL contracts")
	cmd.Flags().Int64Var(&f.maxBytes, "max-bytes", defaults.Loader.MaxBodyBytes, "max contract bytes to read")
	cmd.Flags().DurationVar(&f.loadTimeout, "load-timeout", defaults.Loader.Timeout, "timeout for fetching URL contracts")

	// Semantic analyzer flags
	cmd.Flags().BoolVar(&f.llmEnabled, "llm", false, "enable the semantic analyzer")
	cmd.Flags().StringVar(&f.llmProvider, "llm-provider", "openai", "semantic analyzer provider (openai, groq, anthropic, ollama)")
	cmd.Flags().StringVar(&f.llmModel, "llm-model", "", "semantic analyzer model (provider default if empty)")
	cmd.Flags().StringVar(&f.mergeMode, "merge-mode", defaults.Semantic.MergeMode, "how judgments combine with keywords (supplement, substitute)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the judgment cache")
}

// apply overrides cfg with the flags the user actually set
func (f *analysisFlags) apply(cmd *cobra.Command, cfg *model.Config) error {
	flags := cmd.Flags()

	if flags.Changed("workers") {
		cfg.Analysis.Workers = f.workers
	}
	if f.noFooter {
		cfg.Output.IncludeFooter = false
	}
	if f.auditLog {
		cfg.Audit.Enabled = true
	}
	if flags.Changed("ua") {
		cfg.Loader.UserAgent = f.userAgent
	}
	if flags.Changed("max-bytes") {
		cfg.Loader.MaxBodyBytes = f.maxBytes
	}
	if flags.Changed("load-timeout") {
		cfg.Loader.Timeout = f.loadTimeout
	}

	if flags.Changed("llm-provider") || (f.llmEnabled && cfg.Semantic.Provider == "") {
		cfg.Semantic.Provider = f.llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.Semantic.Model = f.llmModel
	}
	if flags.Changed("merge-mode") {
		cfg.Semantic.MergeMode = f.mergeMode
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	cfg.Output.Verbose = verbose

	applyProviderEnv(cfg)
	return requireAPIKey(cfg.Semantic)
}

// requireAPIKey fails early when a hosted provider has no key
func requireAPIKey(sc model.SemanticConfig) error {
	keyVar := providerKeyVar(sc.Provider)
	if keyVar != "" && sc.APIKey == "" {
		return fmt.Errorf("%s environment variable not set", keyVar)
	}
	return nil
}

// buildPipeline creates the pipeline described by cfg. The returned close
// function releases the audit store and must always be called.
func buildPipeline(cfg *model.Config, logger logging.Logger, opts ...pipeline.Option) (*pipeline.Pipeline, func(), error) {
	closer := func() {}
	opts = append([]pipeline.Option{pipeline.WithLogger(logger)}, opts...)

	if cfg.Audit.Enabled {
		store, err := audit.Open(cfg.Audit.DataDir)
		if err != nil {
			return nil, closer, fmt.Errorf("open audit log: %w", err)
		}
		closer = func() {
			if err := store.Close(); err != nil {
				logger.Warn("close audit log", logging.Err(err))
			}
		}
		opts = append(opts, pipeline.WithAuditSink(store))
	}

	p, err := pipeline.NewPipeline(cfg, opts...)
	if err != nil {
		closer()
		return nil, func() {}, err
	}
	return p, closer, nil
}

// setup loads configuration, applies command flags and builds the logger
func setup(cmd *cobra.Command, flags *analysisFlags) (*model.Config, logging.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if flags != nil {
		if err := flags.apply(cmd, cfg); err != nil {
			return nil, nil, err
		}
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize logger: %w", err)
	}
	return cfg, logger, nil
}
