// Package domain holds cross-cutting domain types and error taxonomy.
package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline. Provider errors cover
// failures of the external vision and rerank models.
var (
	// ErrProviderTimeout signals an external model call exceeding its budget.
	ErrProviderTimeout = errors.New("provider timeout")
	// ErrProviderRateLimit signals a 429 from an external model.
	ErrProviderRateLimit = errors.New("provider rate limited")
	// ErrProviderAuth signals a bad credential (401/403). Never retried.
	ErrProviderAuth = errors.New("provider auth error")
	// ErrProviderInvalidResponse signals unparsable or schema-invalid model output.
	ErrProviderInvalidResponse = errors.New("provider invalid response")
	// ErrProviderNetwork signals a transport-level failure reaching the provider.
	ErrProviderNetwork = errors.New("provider network error")
	// ErrProviderContextTooLarge signals a payload exceeding the model context window.
	ErrProviderContextTooLarge = errors.New("provider context too large")
	// ErrInternal signals an unrecoverable internal failure.
	ErrInternal = errors.New("internal error")

	// ErrProductNotFound signals a missing catalog product.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidProduct signals a catalog product that fails validation.
	ErrInvalidProduct = errors.New("invalid product")
	// ErrInvalidSettings signals admin settings that fail validation.
	ErrInvalidSettings = errors.New("invalid settings")
)

// ProviderError wraps a provider sentinel with the provider name and,
// when known, the upstream HTTP status.
type ProviderError struct {
	Provider string
	Status   int
	Detail   string
	Kind     error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Provider, e.Kind.Error(), e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind.Error(), e.Detail)
}

func (e *ProviderError) Unwrap() error { return e.Kind }

// NewProviderError creates a provider error wrapping the given sentinel.
func NewProviderError(provider string, status int, kind error, detail string) error {
	return &ProviderError{Provider: provider, Status: status, Kind: kind, Detail: detail}
}

// IsRetryable reports whether a provider failure may be retried.
// Auth failures and oversized payloads never recover by retrying.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrProviderAuth) || errors.Is(err, ErrProviderContextTooLarge) {
		return false
	}
	return errors.Is(err, ErrProviderTimeout) ||
		errors.Is(err, ErrProviderRateLimit) ||
		errors.Is(err, ErrProviderInvalidResponse) ||
		errors.Is(err, ErrProviderNetwork)
}
