package perception

import (
	"context"
	"fmt"
	"time"

	"pathtutor/internal/config"
)

// ProviderConfig holds the resolved provider settings.
type ProviderConfig struct {
	Provider          Provider
	APIKey            string
	Model             string // Optional model override
	BaseURL           string // Optional endpoint override
	Timeout           time.Duration
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
}

// ProviderConfigFromConfig resolves provider settings from the loaded config.
func ProviderConfigFromConfig(cfg *config.Config) *ProviderConfig {
	return &ProviderConfig{
		Provider:          Provider(cfg.LLM.Provider),
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		BaseURL:           cfg.LLM.BaseURL,
		Timeout:           cfg.GetLLMTimeout(),
		MaxTokens:         cfg.LLM.MaxTokens,
		Temperature:       cfg.LLM.Temperature,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}
}

// NewClientFromConfig creates an LLM client from a provider config. Unset
// fields keep the provider defaults.
func NewClientFromConfig(ctx context.Context, pc *ProviderConfig) (LLMClient, error) {
	if pc.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for provider %s", pc.Provider)
	}

	switch pc.Provider {
	case ProviderGroq, ProviderOpenAI:
		cfg := DefaultGroqConfig(pc.APIKey)
		if pc.Provider == ProviderOpenAI {
			cfg = DefaultOpenAIConfig(pc.APIKey)
		}
		overrideString(&cfg.Model, pc.Model)
		overrideString(&cfg.BaseURL, pc.BaseURL)
		overrideDuration(&cfg.Timeout, pc.Timeout)
		overrideInt(&cfg.MaxTokens, pc.MaxTokens)
		overrideFloat(&cfg.Temperature, pc.Temperature)
		overrideInt(&cfg.RequestsPerMinute, pc.RequestsPerMinute)
		return NewOpenAIClientWithConfig(cfg), nil

	case ProviderAnthropic:
		cfg := DefaultAnthropicConfig(pc.APIKey)
		overrideString(&cfg.Model, pc.Model)
		overrideString(&cfg.BaseURL, pc.BaseURL)
		overrideDuration(&cfg.Timeout, pc.Timeout)
		overrideInt(&cfg.MaxTokens, pc.MaxTokens)
		overrideFloat(&cfg.Temperature, pc.Temperature)
		overrideInt(&cfg.RequestsPerMinute, pc.RequestsPerMinute)
		return NewAnthropicClientWithConfig(cfg), nil

	case ProviderGemini:
		cfg := DefaultGeminiConfig(pc.APIKey)
		overrideString(&cfg.Model, pc.Model)
		overrideString(&cfg.BaseURL, pc.BaseURL)
		overrideDuration(&cfg.Timeout, pc.Timeout)
		overrideInt(&cfg.MaxTokens, pc.MaxTokens)
		overrideFloat(&cfg.Temperature, pc.Temperature)
		overrideInt(&cfg.RequestsPerMinute, pc.RequestsPerMinute)
		return NewGeminiClientWithConfig(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown provider: %s", pc.Provider)
	}
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, v int) {
	if v > 0 {
		*dst = v
	}
}

func overrideFloat(dst *float64, v float64) {
	if v > 0 {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}
