package perception

import "time"

const defaultSystemPrompt = "You are a helpful programming tutor. Respond in English. Be accurate and concise."

// Provider represents an LLM provider.
type Provider string

const (
	ProviderGroq      Provider = "groq"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// Base URLs for OpenAI-compatible endpoints.
const (
	GroqBaseURL   = "https://api.groq.com/openai/v1"
	OpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAIConfig holds configuration for OpenAI-compatible clients (OpenAI, Groq).
type OpenAIConfig struct {
	Provider          Provider
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
}

// AnthropicConfig holds configuration for Anthropic client.
type AnthropicConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
}

// GeminiConfig holds configuration for Gemini client.
type GeminiConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	Timeout           time.Duration
	MaxTokens         int
	Temperature       float64
	RequestsPerMinute int
}
