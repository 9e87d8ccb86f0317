package perception

import (
	"errors"
	"fmt"
)

// ProviderError reports a failed completion call: network, auth, quota,
// timeout or a malformed response.
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int // 0 when no HTTP response was received
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// AsProviderError extracts a *ProviderError from err's chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsProviderError reports whether err's chain contains a *ProviderError.
func IsProviderError(err error) bool {
	_, ok := AsProviderError(err)
	return ok
}

// wrapProviderError returns err unchanged if it already carries a
// ProviderError, otherwise wraps it.
func wrapProviderError(provider string, err error) error {
	if err == nil || IsProviderError(err) {
		return err
	}
	return &ProviderError{Provider: provider, Message: err.Error(), Err: err}
}
