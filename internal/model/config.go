package model

import "time"

// Config is the complete clauserisk configuration
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Semantic SemanticConfig `yaml:"semantic" mapstructure:"semantic"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Audit    AuditConfig    `yaml:"audit" mapstructure:"audit"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Loader   LoaderConfig   `yaml:"loader" mapstructure:"loader"`
}

// AnalysisConfig controls the deterministic core
type AnalysisConfig struct {
	MinInputLength  int     `yaml:"min_input_length" mapstructure:"min_input_length"`   // Runes; shorter input is rejected
	MinClauseLength int     `yaml:"min_clause_length" mapstructure:"min_clause_length"` // Runes; shorter clauses are dropped
	MaxClauses      int     `yaml:"max_clauses" mapstructure:"max_clauses"`             // Earliest clauses win
	ScriptThreshold float64 `yaml:"script_threshold" mapstructure:"script_threshold"`   // Devanagari share that selects "hi"
	Workers         int     `yaml:"workers" mapstructure:"workers"`                     // Per-clause fan-out, 1 = sequential
}

// SemanticConfig configures the optional external semantic analyzer
type SemanticConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // openai, groq, anthropic, ollama, "" (disabled)
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"-" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	MergeMode         string  `yaml:"merge_mode" mapstructure:"merge_mode"` // supplement, substitute
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
	HTTPProxy         string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// CacheConfig configures the judgment cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"` // Empty = ~/.clauserisk/cache
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// AuditConfig configures the append-only audit log
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"` // Empty = ~/.clauserisk/data
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// LoaderConfig controls document loading
type LoaderConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MinInputLength:  50,
			MinClauseLength: 40,
			MaxClauses:      15,
			ScriptThreshold: 0.10,
			Workers:         4,
		},
		Semantic: SemanticConfig{
			Provider:          "", // Disabled by default
			Timeout:           30,
			MaxTokens:         600,
			MergeMode:         "supplement",
			RequestsPerSecond: 2,
			Burst:             2,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       "", // ~/.clauserisk/cache
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled: false,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			MaxBodyBytes: 1 << 20,
		},
		Loader: LoaderConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "clauserisk/0.1 (+https://github.com/ppiankov/clauserisk)",
			MaxBodyBytes:  5_000_000,
			RespectRobots: true,
		},
	}
}
