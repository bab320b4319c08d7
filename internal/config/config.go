// Package config provides application configuration with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (SUPPORT_ prefix, runtime override)
//  2. Config file (./support.yaml or ~/.support-agent/config.yaml)
//  3. Default values
//
// Sensitive values (the Postgres password) are never logged; validation
// uses sentinel errors so callers can match with errors.Is().
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelName indicates the model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidHistoryBound indicates the history bound is out of range.
	ErrInvalidHistoryBound = errors.New("invalid max history messages")

	// ErrInvalidToolRounds indicates the tool round cap is out of range.
	ErrInvalidToolRounds = errors.New("invalid max tool rounds")

	// ErrInvalidToolTimeout indicates the per-tool timeout is not positive.
	ErrInvalidToolTimeout = errors.New("invalid tool timeout")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidTopK indicates the policy search top-k is out of range.
	ErrInvalidTopK = errors.New("invalid search top-k")

	// ErrInvalidRequestRate indicates the model-call rate limit is negative.
	ErrInvalidRequestRate = errors.New("invalid requests per second")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Bounds for validated settings.
const (
	MinHistoryMessages = 10
	MaxHistoryLimit    = 10000
	MaxToolRoundsLimit = 50
	MaxTopK            = 10
)

// Config stores application configuration.
type Config struct {
	// AI provider and model configuration
	Provider      string `mapstructure:"provider"`       // "gemini" (default), "openai", "ollama"
	ModelName     string `mapstructure:"model_name"`     // e.g. "gemini-2.5-flash", "gpt-4o-mini"
	EmbedderModel string `mapstructure:"embedder_model"` // embedding model for policy search
	OllamaHost    string `mapstructure:"ollama_host"`    // only used when provider is "ollama"

	// Conversation configuration
	MaxHistoryMessages int           `mapstructure:"max_history_messages"` // sliding window bound
	MaxToolRounds      int           `mapstructure:"max_tool_rounds"`      // safety cap on tool-call rounds
	ToolTimeout        time.Duration `mapstructure:"tool_timeout"`         // per tool invocation
	MaxRetries         int           `mapstructure:"max_retries"`          // transient model-call retries
	RequestsPerSecond  float64       `mapstructure:"requests_per_second"`  // model-call throttle; 0 disables

	// Orders database (SQLite)
	SQLitePath string `mapstructure:"sqlite_path"`

	// Policy index (PostgreSQL + pgvector)
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"` // SENSITIVE: never logged
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// Policy ingestion and search
	PoliciesDir string `mapstructure:"policies_dir"`
	SearchTopK  int    `mapstructure:"search_top_k"`

	// Logging
	LogLevel string `mapstructure:"log_level"` // debug, info, warn, error
	LogJSON  bool   `mapstructure:"log_json"`
}

// Load reads configuration from defaults, an optional config file, and
// environment variables with the SUPPORT_ prefix.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("support")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.support-agent")

	v.SetEnvPrefix("SUPPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// Missing config file is fine; defaults plus env cover everything.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", ProviderGemini)
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("embedder_model", "gemini-embedding-001")
	v.SetDefault("ollama_host", "http://localhost:11434")

	v.SetDefault("max_history_messages", 200)
	v.SetDefault("max_tool_rounds", 10)
	v.SetDefault("tool_timeout", 30*time.Second)
	v.SetDefault("max_retries", 3)
	v.SetDefault("requests_per_second", 0.0)

	v.SetDefault("sqlite_path", "data/support.db")

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "postgres")
	v.SetDefault("postgres_password", "")
	v.SetDefault("postgres_db_name", "support")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("policies_dir", "policies")
	v.SetDefault("search_top_k", 3)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// Validate checks configuration values against their allowed ranges.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("%w: %q (want gemini, openai, or ollama)", ErrInvalidProvider, c.Provider)
	}

	if strings.TrimSpace(c.ModelName) == "" {
		return fmt.Errorf("%w: model name is empty", ErrInvalidModelName)
	}

	if c.MaxHistoryMessages < MinHistoryMessages || c.MaxHistoryMessages > MaxHistoryLimit {
		return fmt.Errorf("%w: %d (want %d-%d)", ErrInvalidHistoryBound,
			c.MaxHistoryMessages, MinHistoryMessages, MaxHistoryLimit)
	}

	if c.MaxToolRounds < 1 || c.MaxToolRounds > MaxToolRoundsLimit {
		return fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidToolRounds, c.MaxToolRounds, MaxToolRoundsLimit)
	}

	if c.ToolTimeout <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidToolTimeout, c.ToolTimeout)
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRequestRate, c.RequestsPerSecond)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.SearchTopK < 1 || c.SearchTopK > MaxTopK {
		return fmt.Errorf("%w: %d (want 1-%d)", ErrInvalidTopK, c.SearchTopK, MaxTopK)
	}

	return nil
}

// PostgresURL returns the connection URL for the policy index database.
// The password is URL-escaped so special characters survive parsing.
func (c *Config) PostgresURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.PostgresUser, c.PostgresPassword),
		Host:   fmt.Sprintf("%s:%d", c.PostgresHost, c.PostgresPort),
		Path:   c.PostgresDBName,
	}
	q := u.Query()
	q.Set("sslmode", c.PostgresSSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
