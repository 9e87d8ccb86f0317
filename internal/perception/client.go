package perception

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// LLMClient defines the interface for completion providers: prompt in,
// text out, may fail with *ProviderError.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// ModelAware is implemented by clients that expose their model identifier.
type ModelAware interface {
	GetModel() string
	SetModel(model string)
}

// ProviderNamer is implemented by clients that know their provider.
type ProviderNamer interface {
	Provider() Provider
}

// newLimiter returns a limiter allowing rpm requests per minute, or an
// unlimited one when rpm <= 0.
func newLimiter(rpm int) *rate.Limiter {
	if rpm <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

// withDefaultTimeout applies timeout when ctx carries no deadline.
func withDefaultTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline || timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// waitTurn blocks on the limiter and converts cancellation into a
// ProviderError.
func waitTurn(ctx context.Context, limiter *rate.Limiter, provider Provider) error {
	if err := limiter.Wait(ctx); err != nil {
		return &ProviderError{Provider: string(provider), Message: "rate limiter: " + err.Error(), Err: err}
	}
	return nil
}

func providerOf(client LLMClient) string {
	if n, ok := client.(ProviderNamer); ok {
		return string(n.Provider())
	}
	return "unknown"
}

func modelOf(client LLMClient) string {
	if m, ok := client.(ModelAware); ok {
		return m.GetModel()
	}
	return ""
}
