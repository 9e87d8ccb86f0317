package perception

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pathtutor/internal/logging"
	"pathtutor/internal/usage"
)

// ReasoningTrace captures one completion call for later review.
type ReasoningTrace struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Operation string `json:"operation"` // classify, dispatch
	Category  string `json:"category,omitempty"`

	// LLM Interaction
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	Response     string `json:"response"`

	// Metadata
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	DurationMs int64  `json:"duration_ms"`

	Success      bool   `json:"success"`
	ErrorMessage string `json:"error_message,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// TraceStore defines the interface for storing reasoning traces.
type TraceStore interface {
	StoreReasoningTrace(trace *ReasoningTrace) error
}

// CallObserver receives the outcome of every completion call.
type CallObserver interface {
	ObserveProviderCall(provider, operation string, elapsed time.Duration, err error)
}

// TracingLLMClient wraps any LLMClient and records every interaction.
// Attribution (session, operation, category) is read from the context set
// with usage.WithTurn.
type TracingLLMClient struct {
	underlying LLMClient
	store      TraceStore
	observer   CallObserver
}

// NewTracingLLMClient creates a tracing wrapper around an existing LLM client.
// store and observer may be nil.
func NewTracingLLMClient(underlying LLMClient, store TraceStore, observer CallObserver) *TracingLLMClient {
	return &TracingLLMClient{
		underlying: underlying,
		store:      store,
		observer:   observer,
	}
}

// Complete implements LLMClient.Complete with tracing.
func (tc *TracingLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	return tc.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements LLMClient.CompleteWithSystem with tracing.
func (tc *TracingLLMClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	sessionID, category, operation := usage.TurnFromContext(ctx)
	provider := providerOf(tc.underlying)
	model := modelOf(tc.underlying)

	start := time.Now()
	logging.API("LLM call started: op=%s provider=%s prompt_len=%d", operation, provider, len(userPrompt))

	response, err := tc.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)

	duration := time.Since(start)
	if err != nil {
		logging.API("LLM call failed: op=%s duration=%v error=%s", operation, duration, err.Error())
	} else {
		logging.API("LLM call completed: op=%s duration=%v response_len=%d", operation, duration, len(response))
	}
	logging.AuditWithSession(sessionID).LLMCall(model, 0, duration, err == nil, errString(err))

	if tc.observer != nil {
		tc.observer.ObserveProviderCall(provider, operation, duration, err)
	}

	if tc.store != nil {
		trace := &ReasoningTrace{
			ID:           uuid.NewString(),
			SessionID:    sessionID,
			Operation:    operation,
			Category:     category,
			SystemPrompt: systemPrompt,
			UserPrompt:   userPrompt,
			Response:     response,
			Provider:     provider,
			Model:        model,
			DurationMs:   duration.Milliseconds(),
			Success:      err == nil,
			ErrorMessage: errString(err),
			Timestamp:    start,
		}
		if storeErr := tc.store.StoreReasoningTrace(trace); storeErr != nil {
			logging.Get(logging.CategoryStore).Warn("Failed to store reasoning trace: %v", storeErr)
		}
	}

	return response, err
}

// Provider returns the wrapped client's provider.
func (tc *TracingLLMClient) Provider() Provider {
	return Provider(providerOf(tc.underlying))
}

// GetModel returns the wrapped client's model, if it exposes one.
func (tc *TracingLLMClient) GetModel() string {
	return modelOf(tc.underlying)
}

// SetModel forwards to the wrapped client when it supports model changes.
func (tc *TracingLLMClient) SetModel(model string) {
	if m, ok := tc.underlying.(ModelAware); ok {
		m.SetModel(model)
	}
}

// Unwrap returns the wrapped client.
func (tc *TracingLLMClient) Unwrap() LLMClient {
	return tc.underlying
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
