// Package config loads dataforge configuration from forge.yaml with
// environment variable overrides. Logging settings live separately in
// .forge/config.json so the logging package can read them without importing
// this package.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all dataforge configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Record store configuration
	Store StoreConfig `yaml:"store"`

	// Ingestion watcher configuration
	Watch WatchConfig `yaml:"watch"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the language model client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`

	// MaxConcurrent bounds in-flight requests to the provider.
	MaxConcurrent int `yaml:"max_concurrent"`
}

// StoreConfig configures the SQLite record store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// WatchConfig configures the ingestion watcher.
type WatchConfig struct {
	Directory string `yaml:"directory"`
	// Request is the standing natural-language request run against each
	// newly created file.
	Request  string `yaml:"request"`
	Debounce string `yaml:"debounce"`
}

// LoggingConfig configures console logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "dataforge",
		Version: "0.3.0",

		LLM: LLMConfig{
			Provider:      "anthropic",
			Model:         "claude-sonnet-4-20250514",
			BaseURL:       "https://api.anthropic.com/v1",
			Timeout:       "120s",
			MaxConcurrent: 5,
		},

		Store: StoreConfig{
			DatabasePath: ".forge/records.db",
		},

		Watch: WatchConfig{
			Directory: "inbox",
			Request:   "clean, validate and report on this file",
			Debounce:  "500ms",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides(false)
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// The default provider is a fallback, not a choice; key-based provider
	// selection must only run when the file names no provider.
	var probe struct {
		LLM struct {
			Provider string `yaml:"provider"`
		} `yaml:"llm"`
	}
	_ = yaml.Unmarshal(data, &probe)

	cfg.applyEnvOverrides(probe.LLM.Provider != "")

	return cfg, nil
}

var providerKeyEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// applyEnvOverrides applies environment variable overrides. An explicitly
// configured provider only ever takes its own key from the environment; a
// key env var selects its provider only when the provider was left to
// default.
func (c *Config) applyEnvOverrides(providerExplicit bool) {
	if provider := os.Getenv("FORGE_PROVIDER"); provider != "" {
		c.LLM.Provider = provider
		providerExplicit = true
	}

	if key := os.Getenv(providerKeyEnv[c.LLM.Provider]); key != "" {
		c.LLM.APIKey = key
	} else if !providerExplicit && c.LLM.APIKey == "" {
		for _, provider := range []string{"anthropic", "openai", "gemini"} {
			if key := os.Getenv(providerKeyEnv[provider]); key != "" {
				c.LLM.Provider = provider
				c.LLM.APIKey = key
				break
			}
		}
	}
	if model := os.Getenv("FORGE_MODEL"); model != "" {
		c.LLM.Model = model
	}
	if url := os.Getenv("FORGE_BASE_URL"); url != "" {
		c.LLM.BaseURL = url
	}
	if path := os.Getenv("FORGE_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if dir := os.Getenv("FORGE_WATCH_DIR"); dir != "" {
		c.Watch.Directory = dir
	}
}

// LLMTimeout parses the configured LLM timeout, defaulting to 120s.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 120 * time.Second
	}
	return d
}

// WatchDebounce parses the configured watcher debounce, defaulting to 500ms.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}
