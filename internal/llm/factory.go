package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/corroborate/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// An empty provider name disables narratives and returns nil.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	case "":
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unknown LLM provider %q (supported: openai, anthropic, ollama)", model.ErrConfiguration, config.Provider)
	}
}

// ConfigFromModel converts the LLM and HTTP configuration sections to llm.Config.
// Strict evidence mode is always on.
func ConfigFromModel(llmConfig model.LLMConfig, httpConfig model.HTTPConfig) Config {
	return Config{
		Provider:       llmConfig.Provider,
		Model:          llmConfig.Model,
		APIKey:         llmConfig.APIKey,
		BaseURL:        llmConfig.BaseURL,
		Timeout:        llmConfig.Timeout,
		StrictEvidence: true,
		MaxTokens:      llmConfig.MaxTokens,
		HTTPProxy:      httpConfig.HTTPProxy,
		HTTPSProxy:     httpConfig.HTTPSProxy,
		NoProxy:        httpConfig.NoProxy,
	}
}
