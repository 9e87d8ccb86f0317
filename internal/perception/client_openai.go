package perception

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"pathtutor/internal/logging"
	"pathtutor/internal/usage"
)

// OpenAIClient implements LLMClient for OpenAI-compatible chat completion
// APIs. Groq is served by the same client with a different base URL.
type OpenAIClient struct {
	provider    Provider
	client      *openai.Client
	model       string
	timeout     time.Duration
	maxTokens   int
	temperature float64
	limiter     *rate.Limiter
}

// DefaultGroqConfig returns sensible defaults for Groq.
func DefaultGroqConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		Provider:          ProviderGroq,
		APIKey:            apiKey,
		BaseURL:           GroqBaseURL,
		Model:             "llama-3.3-70b-versatile",
		Timeout:           60 * time.Second,
		MaxTokens:         1024,
		Temperature:       0.2,
		RequestsPerMinute: 30,
	}
}

// DefaultOpenAIConfig returns sensible defaults for OpenAI.
func DefaultOpenAIConfig(apiKey string) OpenAIConfig {
	return OpenAIConfig{
		Provider:    ProviderOpenAI,
		APIKey:      apiKey,
		BaseURL:     OpenAIBaseURL,
		Model:       "gpt-4o-mini",
		Timeout:     60 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// NewOpenAIClientWithConfig creates an OpenAI-compatible client.
func NewOpenAIClientWithConfig(config OpenAIConfig) *OpenAIClient {
	clientCfg := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(config.BaseURL, "/")
	}
	clientCfg.HTTPClient = &http.Client{Timeout: config.Timeout}

	provider := config.Provider
	if provider == "" {
		provider = ProviderOpenAI
	}

	return &OpenAIClient{
		provider:    provider,
		client:      openai.NewClientWithConfig(clientCfg),
		model:       config.Model,
		timeout:     config.Timeout,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		limiter:     newLimiter(config.RequestsPerMinute),
	}
}

// Complete sends a prompt and returns the completion.
func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.timeout)
	defer cancel()

	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}
	if err := waitTurn(ctx, c.limiter, c.provider); err != nil {
		return "", err
	}

	logging.APIDebug("[%s] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.provider, c.model, len(systemPrompt), len(userPrompt))

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: float32(c.temperature),
	})
	if err != nil {
		return "", c.providerError(err)
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: string(c.provider), Message: "no completion returned"}
	}

	usage.Record(ctx, c.model, string(c.provider), resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (c *OpenAIClient) providerError(err error) *ProviderError {
	pe := &ProviderError{Provider: string(c.provider), Message: err.Error(), Err: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.HTTPStatusCode
		pe.Message = apiErr.Message
	case errors.As(err, &reqErr):
		pe.StatusCode = reqErr.HTTPStatusCode
		pe.Message = fmt.Sprintf("request failed: %v", reqErr.Err)
	}
	return pe
}

// Provider returns the provider this client talks to.
func (c *OpenAIClient) Provider() Provider {
	return c.provider
}

// SetModel changes the model used for future requests.
func (c *OpenAIClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model being used.
func (c *OpenAIClient) GetModel() string {
	return c.model
}
