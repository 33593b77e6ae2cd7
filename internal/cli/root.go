// Package cli implements the clauserisk command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/clauserisk/internal/logging"
	"github.com/ppiankov/clauserisk/internal/model"
)

// Version is set at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "v0.1.0"

const envPrefix = "CLAUSERISK"

var (
	cfgFile  string
	verbose  bool
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "clauserisk",
	Short: "clauserisk - contract clause risk analysis (non-normative)",
	Long: `clauserisk splits a legal contract into clauses and flags intellectual
property and obligation risk in each one.

Every score is a transparent keyword heuristic: each clause lists the
categories that fired, the terms that matched, and the points they added.
An optional semantic analyzer (OpenAI, Groq, Anthropic or Ollama) can
supplement the keywords but never replaces the rule-based score when it
fails.

clauserisk is a reading aid, not legal advice.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and scoring policy of clauserisk.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "clauserisk %s (policy canonical-v1)\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.clauserisk/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and CLAUSERISK_* variables
func initConfig() {
	// A missing .env is normal; API keys usually come from the shell
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".clauserisk"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// CLAUSERISK_SEMANTIC_MERGE_MODE -> semantic.merge_mode
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := registerDefaults(viper.GetViper()); err != nil {
		fmt.Fprintf(os.Stderr, "Error registering defaults: %v\n", err)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// registerDefaults makes every config key known to v, so environment
// variables bind during Unmarshal even without a config file
func registerDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return err
	}
	setDefaults(v, "", tree)

	// Keys the marshaled defaults omit: api_key is yaml:"-" so it never
	// lands in a written config file, the rest are omitempty
	for _, key := range []string{"semantic.api_key", "semantic.base_url", "semantic.http_proxy", "semantic.https_proxy"} {
		v.SetDefault(key, "")
	}
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for key, val := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if sub, ok := val.(map[string]any); ok {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}

// loadConfig resolves defaults < config file < environment into a Config.
// Command flags are applied on top by each command.
func loadConfig() (*model.Config, error) {
	return loadConfigFrom(viper.GetViper())
}

func loadConfigFrom(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	applyProviderEnv(cfg)
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// providerKeyVar names the conventional API key variable of a hosted provider
func providerKeyVar(provider string) string {
	switch strings.ToLower(provider) {
	case "openai":
		return "OPENAI_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// applyProviderEnv fills the API key and base URL from the provider's
// conventional environment variables when the config leaves them empty
func applyProviderEnv(cfg *model.Config) {
	if keyVar := providerKeyVar(cfg.Semantic.Provider); keyVar != "" && cfg.Semantic.APIKey == "" {
		cfg.Semantic.APIKey = os.Getenv(keyVar)
	}
	if strings.EqualFold(cfg.Semantic.Provider, "ollama") && cfg.Semantic.BaseURL == "" {
		cfg.Semantic.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
}

// newLogger builds the process logger; --verbose raises a quiet level to info
func newLogger(cfg *model.Config) (logging.Logger, error) {
	logCfg := cfg.Log
	if verbose && logLevel == "" && logging.ParseLevel(logCfg.Level) > logging.ParseLevel("info") {
		logCfg.Level = "info"
	}
	return logging.NewLogger(logCfg)
}
