package perception

import (
	"fmt"

	"dataforge/internal/config"
)

// NewClientFromConfig constructs the LLM client named by the configuration.
// The client is built once and passed explicitly to its consumers; there is
// no ambient singleton.
func NewClientFromConfig(cfg config.LLMConfig, timeoutCfg *config.Config) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %q", cfg.Provider)
	}

	timeout := timeoutCfg.LLMTimeout()
	maxConcurrent := int64(cfg.MaxConcurrent)

	switch cfg.Provider {
	case "anthropic", "":
		ac := DefaultAnthropicConfig(cfg.APIKey)
		ac.Timeout = timeout
		ac.MaxConcurrent = maxConcurrent
		if cfg.Model != "" {
			ac.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			ac.BaseURL = cfg.BaseURL
		}
		return NewAnthropicClientWithConfig(ac), nil

	case "openai":
		oc := DefaultOpenAIConfig(cfg.APIKey)
		oc.Timeout = timeout
		oc.MaxConcurrent = maxConcurrent
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		return NewOpenAIClientWithConfig(oc), nil

	case "gemini":
		gc := DefaultGeminiConfig(cfg.APIKey)
		gc.Timeout = timeout
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		return NewGeminiClientWithConfig(gc)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
}
