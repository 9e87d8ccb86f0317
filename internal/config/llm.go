package config

import "time"

// LLMConfig configures the completion provider.
type LLMConfig struct {
	Provider          string  `yaml:"provider"` // groq, openai, anthropic, gemini
	APIKey            string  `yaml:"api_key"`
	Model             string  `yaml:"model"`
	BaseURL           string  `yaml:"base_url"`
	Timeout           string  `yaml:"timeout"`
	MaxTokens         int     `yaml:"max_tokens"`
	Temperature       float64 `yaml:"temperature"`
	RequestsPerMinute int     `yaml:"requests_per_minute"` // 0 disables client-side limiting
}

// ValidProviders lists all supported LLM providers.
var ValidProviders = []string{"groq", "openai", "anthropic", "gemini"}

// DefaultModels is the model used per provider when none is configured.
var DefaultModels = map[string]string{
	"groq":      "llama-3.3-70b-versatile",
	"openai":    "gpt-4o-mini",
	"anthropic": "claude-3-5-haiku-latest",
	"gemini":    "gemini-2.0-flash",
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}
