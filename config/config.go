package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrConfiguration marks a missing or invalid setting discovered at startup.
// Configuration problems are fatal to the process, never to a single request.
var ErrConfiguration = errors.New("configuration error")

// Config holds all configuration for the research pipeline.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	Listen         string        `mapstructure:"listen"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// LLMConfig contains the language-model provider settings.
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	Provider     string        `mapstructure:"provider"` // tavily, serper, brave
	TavilyAPIKey string        `mapstructure:"tavily_api_key"`
	SerperAPIKey string        `mapstructure:"serper_api_key"`
	BraveAPIKey  string        `mapstructure:"brave_api_key"`
	MaxResults   int           `mapstructure:"max_results"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ScraperConfig configures the webpage scraper.
type ScraperConfig struct {
	Type      string        `mapstructure:"type"` // http or chromedp
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxChars  int           `mapstructure:"max_chars"`
}

// PipelineConfig bounds a single research run.
type PipelineConfig struct {
	NumQueries       int  `mapstructure:"num_queries"`
	TopResults       int  `mapstructure:"top_results"`
	MaxConcurrency   int  `mapstructure:"max_concurrency"`
	ContextMaxChars  int  `mapstructure:"context_max_chars"`
	VerifyReferences bool `mapstructure:"verify_references"`
}

// TelemetryConfig contains telemetry and monitoring settings.
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	CostTracking bool `mapstructure:"cost_tracking"`
	PeriodicLogs bool `mapstructure:"periodic_logs"`
}

// APIKeyForProvider returns the credential matching the configured search provider.
func (s SearchConfig) APIKeyForProvider() string {
	switch s.Provider {
	case "serper":
		return s.SerperAPIKey
	case "brave":
		return s.BraveAPIKey
	default:
		return s.TavilyAPIKey
	}
}

// Validate checks that required credentials and bounds are present. Absence of
// a required key is a startup error, not a per-request error.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("%w: llm.api_key is required (OPENAI_API_KEY)", ErrConfiguration)
	}
	switch c.Search.Provider {
	case "tavily", "serper", "brave":
	default:
		return fmt.Errorf("%w: unsupported search provider %q", ErrConfiguration, c.Search.Provider)
	}
	if strings.TrimSpace(c.Search.APIKeyForProvider()) == "" {
		return fmt.Errorf("%w: search.%s_api_key is required", ErrConfiguration, c.Search.Provider)
	}
	switch c.Scraper.Type {
	case "http", "chromedp":
	default:
		return fmt.Errorf("%w: unsupported scraper type %q", ErrConfiguration, c.Scraper.Type)
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("%w: search.max_results must be > 0", ErrConfiguration)
	}
	if c.Pipeline.NumQueries <= 0 {
		return fmt.Errorf("%w: pipeline.num_queries must be > 0", ErrConfiguration)
	}
	if c.Pipeline.TopResults <= 0 {
		return fmt.Errorf("%w: pipeline.top_results must be > 0", ErrConfiguration)
	}
	return nil
}

// LoadConfig reads configuration from an optional YAML file plus environment
// variables and returns the validated config. Well-known provider env vars
// (OPENAI_API_KEY, TAVILY_API_KEY, ...) are honoured alongside the
// DEEPRESEARCH_* prefixed forms so the binary runs with the same environment
// the original deployment used.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	setDefaults(v)

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("DEEPRESEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: reading config file: %v", ErrConfiguration, err)
		}
		// env-only operation is fine
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config: %v", ErrConfiguration, err)
	}

	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.LLM.APIKey = k
	}
	if m := os.Getenv("OPENAI_MODEL"); m != "" {
		cfg.LLM.Model = m
	}
	if k := os.Getenv("TAVILY_API_KEY"); k != "" {
		cfg.Search.TavilyAPIKey = k
	}
	if k := os.Getenv("SERPER_API_KEY"); k != "" {
		cfg.Search.SerperAPIKey = k
	}
	if k := os.Getenv("BRAVE_SEARCH_KEY"); k != "" {
		cfg.Search.BraveAPIKey = k
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("general.log_level", "info")
	v.SetDefault("general.listen", ":10010")
	v.SetDefault("general.default_timeout", 90*time.Second)

	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", 60*time.Second)

	v.SetDefault("search.provider", "tavily")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout", 15*time.Second)

	v.SetDefault("scraper.type", "http")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("scraper.timeout", 30*time.Second)
	v.SetDefault("scraper.max_chars", 20000)

	v.SetDefault("pipeline.num_queries", 3)
	v.SetDefault("pipeline.top_results", 5)
	v.SetDefault("pipeline.max_concurrency", 4)
	v.SetDefault("pipeline.context_max_chars", 20000)
	v.SetDefault("pipeline.verify_references", true)

	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.cost_tracking", true)
}
