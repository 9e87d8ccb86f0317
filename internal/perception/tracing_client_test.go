package perception

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathtutor/internal/usage"
)

// mockTraceStore implements TraceStore for testing.
type mockTraceStore struct {
	mu     sync.Mutex
	traces []*ReasoningTrace
	err    error
}

func (m *mockTraceStore) StoreReasoningTrace(trace *ReasoningTrace) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces = append(m.traces, trace)
	return m.err
}

type observedCall struct {
	provider  string
	operation string
	err       error
}

type mockObserver struct {
	calls []observedCall
}

func (m *mockObserver) ObserveProviderCall(provider, operation string, _ time.Duration, err error) {
	m.calls = append(m.calls, observedCall{provider: provider, operation: operation, err: err})
}

// namedStub adds provider and model identity to stubClient.
type namedStub struct {
	stubClient
	model string
}

func (n *namedStub) Provider() Provider    { return ProviderGroq }
func (n *namedStub) GetModel() string      { return n.model }
func (n *namedStub) SetModel(model string) { n.model = model }

func TestTracingLLMClient_RecordsSuccess(t *testing.T) {
	store := &mockTraceStore{}
	obs := &mockObserver{}
	inner := &namedStub{stubClient: stubClient{responses: []string{"answer"}}, model: "llama"}
	tc := NewTracingLLMClient(inner, store, obs)

	ctx := usage.WithTurn(context.Background(), "sess-1", "Comparison", usage.OperationDispatch)
	out, err := tc.CompleteWithSystem(ctx, "role", "prompt")
	require.NoError(t, err)
	assert.Equal(t, "answer", out)

	require.Len(t, store.traces, 1)
	trace := store.traces[0]
	assert.NotEmpty(t, trace.ID)
	assert.Equal(t, "sess-1", trace.SessionID)
	assert.Equal(t, usage.OperationDispatch, trace.Operation)
	assert.Equal(t, "Comparison", trace.Category)
	assert.Equal(t, "role", trace.SystemPrompt)
	assert.Equal(t, "prompt", trace.UserPrompt)
	assert.Equal(t, "answer", trace.Response)
	assert.Equal(t, "groq", trace.Provider)
	assert.Equal(t, "llama", trace.Model)
	assert.True(t, trace.Success)

	require.Len(t, obs.calls, 1)
	assert.Equal(t, observedCall{provider: "groq", operation: usage.OperationDispatch}, obs.calls[0])
}

func TestTracingLLMClient_RecordsFailure(t *testing.T) {
	store := &mockTraceStore{}
	boom := &ProviderError{Provider: "groq", Message: "quota exceeded", StatusCode: 429}
	tc := NewTracingLLMClient(&namedStub{stubClient: stubClient{errs: []error{boom}}}, store, nil)

	_, err := tc.Complete(context.Background(), "prompt")
	require.ErrorIs(t, err, boom)

	require.Len(t, store.traces, 1)
	assert.False(t, store.traces[0].Success)
	assert.Contains(t, store.traces[0].ErrorMessage, "quota exceeded")
}

func TestTracingLLMClient_StoreErrorDoesNotFailCall(t *testing.T) {
	store := &mockTraceStore{err: errors.New("db locked")}
	tc := NewTracingLLMClient(&stubClient{responses: []string{"ok"}}, store, nil)

	out, err := tc.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestTracingLLMClient_ForwardsIdentity(t *testing.T) {
	inner := &namedStub{model: "a"}
	tc := NewTracingLLMClient(inner, nil, nil)

	assert.Equal(t, ProviderGroq, tc.Provider())
	tc.SetModel("b")
	assert.Equal(t, "b", inner.model)
	assert.Equal(t, "b", tc.GetModel())
	assert.Same(t, inner, tc.Unwrap())

	// Clients without identity report "unknown".
	plain := NewTracingLLMClient(&stubClient{}, nil, nil)
	assert.Equal(t, Provider("unknown"), plain.Provider())
	assert.Equal(t, "", plain.GetModel())
}
