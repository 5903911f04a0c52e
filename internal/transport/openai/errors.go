package openai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/snapfind/internal/domain"
)

// classifyError maps a go-openai failure onto the provider error
// taxonomy. Auth (401/403) classification matters most: callers use it
// to stop retrying immediately.
func classifyError(provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewProviderError(provider, 0, domain.ErrProviderTimeout, err.Error())
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return classifyStatus(provider, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return classifyStatus(provider, reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	return domain.NewProviderError(provider, 0, domain.ErrProviderNetwork, err.Error())
}

func classifyStatus(provider string, status int, detail string) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.NewProviderError(provider, status, domain.ErrProviderAuth, detail)
	case status == http.StatusTooManyRequests:
		return domain.NewProviderError(provider, status, domain.ErrProviderRateLimit, detail)
	case status == http.StatusRequestEntityTooLarge,
		status == http.StatusBadRequest && containsContextLength(detail):
		return domain.NewProviderError(provider, status, domain.ErrProviderContextTooLarge, detail)
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return domain.NewProviderError(provider, status, domain.ErrProviderTimeout, detail)
	case status >= 500:
		return domain.NewProviderError(provider, status, domain.ErrProviderNetwork, detail)
	default:
		return domain.NewProviderError(provider, status, domain.ErrProviderInvalidResponse, detail)
	}
}

func containsContextLength(detail string) bool {
	d := strings.ToLower(detail)
	return strings.Contains(d, "context_length") || strings.Contains(d, "maximum context length")
}

// stripFences removes markdown code fences some models wrap around
// JSON output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
