package model

import (
	"fmt"
	"strings"
	"time"
)

// Config is the effective configuration of the corroborate engine
type Config struct {
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Retry       RetryConfig       `yaml:"retry" mapstructure:"retry"`
	Research    RunConfig         `yaml:"research" mapstructure:"research"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Credibility CredibilityConfig `yaml:"credibility" mapstructure:"credibility"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls the page fetcher
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls the content cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"`
	Layered bool          `yaml:"layered" mapstructure:"layered"` // Memory in front of a disk cache under Dir
}

// ConcurrencyConfig controls fetch parallelism and politeness
type ConcurrencyConfig struct {
	FetchWorkers      int     `yaml:"fetch_workers" mapstructure:"fetch_workers"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per domain
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// RetryConfig controls fetch retries
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseBackoff time.Duration `yaml:"base_backoff" mapstructure:"base_backoff"`
	MaxBackoff  time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// Backoff returns the wait before the given retry (0-based): base, 2×base, 4×base … capped
func (r RetryConfig) Backoff(attempt int) time.Duration {
	d := r.BaseBackoff << uint(attempt)
	if d <= 0 || (r.MaxBackoff > 0 && d > r.MaxBackoff) {
		return r.MaxBackoff
	}
	return d
}

// SearchConfig lists the search providers in priority order
type SearchConfig struct {
	Providers         []string      `yaml:"providers" mapstructure:"providers"`
	WikipediaEndpoint string        `yaml:"wikipedia_endpoint" mapstructure:"wikipedia_endpoint"`
	RSSURLTemplate    string        `yaml:"rss_url_template" mapstructure:"rss_url_template"` // %s is replaced by the escaped query
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CredibilityConfig overrides domain authority scores
type CredibilityConfig struct {
	DomainScores map[string]float64 `yaml:"domain_scores,omitempty" mapstructure:"domain_scores"`
}

// VerifyConfig controls the verdict store
type VerifyConfig struct {
	Store      string `yaml:"store" mapstructure:"store"` // memory | sqlite
	SQLitePath string `yaml:"sqlite_path,omitempty" mapstructure:"sqlite_path"`
	Narrate    bool   `yaml:"narrate" mapstructure:"narrate"` // Attach an LLM narrative when an LLM is configured
}

// LLMConfig configures the optional narrative provider
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, or empty (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig controls logging
type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file,omitempty" mapstructure:"file"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       15 * time.Second,
			UserAgent:     "Corroborate/0.1 (+https://github.com/ppiankov/corroborate)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			FetchWorkers:      5,
			RequestsPerSecond: 2.0,
			Burst:             2,
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			BaseBackoff: time.Second,
			MaxBackoff:  8 * time.Second,
		},
		Research: DefaultRunConfig(""),
		Search: SearchConfig{
			Providers:         []string{"wikipedia", "rss"},
			WikipediaEndpoint: "https://en.wikipedia.org/w/api.php",
			RSSURLTemplate:    "https://news.google.com/rss/search?q=%s",
			Timeout:           10 * time.Second,
		},
		Verify: VerifyConfig{
			Store: "memory",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 600,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration; every failure wraps ErrConfiguration
func (c *Config) Validate() error {
	if c.HTTP.Timeout <= 0 {
		return configErrorf("http.timeout must be positive")
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		return configErrorf("http.max_body_bytes must be positive")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return configErrorf("cache.ttl must be positive")
	}
	if c.Cache.Layered && c.Cache.Dir == "" {
		return configErrorf("cache.layered requires cache.dir")
	}
	if c.Concurrency.FetchWorkers < 1 {
		return configErrorf("concurrency.fetch_workers must be at least 1")
	}
	if c.Retry.MaxAttempts < 1 {
		return configErrorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.BaseBackoff < 0 || c.Retry.MaxBackoff < c.Retry.BaseBackoff {
		return configErrorf("retry backoff must satisfy 0 <= base <= max")
	}
	for _, p := range c.Search.Providers {
		switch strings.ToLower(p) {
		case "wikipedia", "rss":
		default:
			return configErrorf("unknown search provider %q", p)
		}
	}
	for domain, score := range c.Credibility.DomainScores {
		if score < 0 || score > 1 {
			return configErrorf("credibility score for %s must be within [0,1]", domain)
		}
	}
	switch c.Verify.Store {
	case "memory":
	case "sqlite":
		if c.Verify.SQLitePath == "" {
			return configErrorf("verify.sqlite_path is required for the sqlite store")
		}
	default:
		return configErrorf("unknown verify.store %q", c.Verify.Store)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "", "openai", "anthropic", "claude", "ollama":
	default:
		return fmt.Errorf("%w: unknown LLM provider %q (supported: openai, anthropic, ollama)", ErrConfiguration, c.LLM.Provider)
	}
	return nil
}
