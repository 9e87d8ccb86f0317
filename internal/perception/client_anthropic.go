package perception

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"pathtutor/internal/logging"
	"pathtutor/internal/usage"
)

// AnthropicClient implements LLMClient for the Anthropic Messages API.
type AnthropicClient struct {
	client      anthropic.Client
	model       string
	timeout     time.Duration
	maxTokens   int64
	temperature float64
	limiter     *rate.Limiter
}

// DefaultAnthropicConfig returns sensible defaults.
func DefaultAnthropicConfig(apiKey string) AnthropicConfig {
	return AnthropicConfig{
		APIKey:      apiKey,
		Model:       "claude-3-5-haiku-latest",
		Timeout:     60 * time.Second,
		MaxTokens:   1024,
		Temperature: 0.2,
	}
}

// NewAnthropicClientWithConfig creates a new Anthropic client with custom config.
func NewAnthropicClientWithConfig(config AnthropicConfig) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithMaxRetries(0),
	}
	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	maxTokens := int64(config.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &AnthropicClient{
		client:      anthropic.NewClient(opts...),
		model:       config.Model,
		timeout:     config.Timeout,
		maxTokens:   maxTokens,
		temperature: config.Temperature,
		limiter:     newLimiter(config.RequestsPerMinute),
	}
}

// Complete sends a prompt and returns the completion.
func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	return c.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem sends a prompt with a system message. The response is
// streamed and accumulated so long answers do not hit request timeouts.
func (c *AnthropicClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	ctx, cancel := withDefaultTimeout(ctx, c.timeout)
	defer cancel()

	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = defaultSystemPrompt
	}
	if err := waitTurn(ctx, c.limiter, ProviderAnthropic); err != nil {
		return "", err
	}

	logging.APIDebug("[Anthropic] CompleteWithSystem: model=%s system_len=%d user_len=%d", c.model, len(systemPrompt), len(userPrompt))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	}
	if c.temperature > 0 {
		params.Temperature = anthropic.Float(c.temperature)
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		if err := message.Accumulate(stream.Current()); err != nil {
			return "", &ProviderError{
				Provider: string(ProviderAnthropic),
				Message:  fmt.Sprintf("stream accumulate: %v", err),
				Err:      err,
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", c.providerError(err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	if b.Len() == 0 {
		return "", &ProviderError{Provider: string(ProviderAnthropic), Message: "no text content in response"}
	}

	usage.Record(ctx, c.model, string(ProviderAnthropic), int(message.Usage.InputTokens), int(message.Usage.OutputTokens))

	return strings.TrimSpace(b.String()), nil
}

func (c *AnthropicClient) providerError(err error) *ProviderError {
	pe := &ProviderError{Provider: string(ProviderAnthropic), Message: err.Error(), Err: err}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.StatusCode
	}
	return pe
}

// Provider returns ProviderAnthropic.
func (c *AnthropicClient) Provider() Provider {
	return ProviderAnthropic
}

// SetModel changes the model used for future requests.
func (c *AnthropicClient) SetModel(model string) {
	c.model = model
}

// GetModel returns the current model being used.
func (c *AnthropicClient) GetModel() string {
	return c.model
}
