package perception

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProviderError_Format(t *testing.T) {
	e := &ProviderError{Provider: "anthropic", Message: "overloaded", StatusCode: 529}
	assert.Equal(t, "anthropic provider error (status 529): overloaded", e.Error())

	e = &ProviderError{Provider: "groq", Message: "dial tcp: timeout"}
	assert.Equal(t, "groq provider error: dial tcp: timeout", e.Error())
}

func TestProviderError_Chain(t *testing.T) {
	root := errors.New("root cause")
	pe := &ProviderError{Provider: "gemini", Message: "x", Err: root}
	wrapped := fmt.Errorf("classify: %w", pe)

	assert.True(t, IsProviderError(wrapped))
	assert.ErrorIs(t, wrapped, root)

	got, ok := AsProviderError(wrapped)
	assert.True(t, ok)
	assert.Same(t, pe, got)

	assert.False(t, IsProviderError(root))
}

func TestWrapProviderError(t *testing.T) {
	assert.NoError(t, wrapProviderError("groq", nil))

	pe := &ProviderError{Provider: "groq", Message: "m"}
	assert.Same(t, pe, wrapProviderError("other", pe))

	wrapped := wrapProviderError("openai", errors.New("eof"))
	got, ok := AsProviderError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "openai", got.Provider)
}
