package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain"
	"github.com/kailas-cloud/snapfind/internal/domain/rerank"
	"github.com/kailas-cloud/snapfind/internal/metrics"
)

// temperatureZero stands in for temperature 0. go-openai tags
// Temperature with omitempty, so a literal 0 never reaches the wire
// and the API falls back to its own default; the smallest positive
// float32 marshals as an explicit near-zero value instead.
const temperatureZero = math.SmallestNonzeroFloat32

// normalizeTemperature maps a configured 0 to temperatureZero so it
// survives serialization.
func normalizeTemperature(t float32) float32 {
	if t == 0 {
		return temperatureZero
	}
	return t
}

// RerankerConfig holds the rerank provider settings.
type RerankerConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Provider        string
	Temperature     float32
	MaxOutputTokens int
	Logger          *zap.Logger
}

// Reranker calls the external ranking model. It returns raw model text;
// parsing, validation, and the repair protocol live in the usecase.
type Reranker struct {
	client      *openai.Client
	model       string
	provider    string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewReranker creates a rerank client.
func NewReranker(cfg *RerankerConfig) *Reranker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Reranker{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		provider:    cfg.Provider,
		temperature: normalizeTemperature(cfg.Temperature),
		maxTokens:   cfg.MaxOutputTokens,
		logger:      cfg.Logger,
	}
}

// Complete sends the versioned rerank payload and returns the raw
// model reply with fences stripped.
func (r *Reranker) Complete(ctx context.Context, payload *rerank.Request, requestID string) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal rerank payload: %w", err)
	}

	return r.chat(ctx, "rerank", rerankSystemPrompt, string(body), r.temperature, requestID)
}

// Repair re-asks the model to fix its own malformed output under
// stricter deterministic settings (temperature 0).
func (r *Reranker) Repair(ctx context.Context, malformed, requestID string) (string, error) {
	return r.chat(ctx, "repair", repairSystemPrompt, malformed, temperatureZero, requestID)
}

func (r *Reranker) chat(
	ctx context.Context, operation, system, user string, temperature float32, requestID string,
) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: temperature,
		MaxTokens:   r.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		User: requestID,
	}

	start := time.Now()
	resp, err := r.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(r.provider, operation, "error").Inc()
		return "", classifyError(r.provider, err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(r.provider, operation, "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(r.provider, operation).Observe(duration.Seconds())

	if len(resp.Choices) == 0 {
		return "", domain.NewProviderError(
			r.provider, 0, domain.ErrProviderInvalidResponse, "empty choices")
	}

	return stripFences(resp.Choices[0].Message.Content), nil
}
