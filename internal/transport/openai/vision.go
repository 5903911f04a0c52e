// Package openai implements the vision and rerank model ports over an
// OpenAI-compatible chat API.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain"
	"github.com/kailas-cloud/snapfind/internal/domain/signals"
	"github.com/kailas-cloud/snapfind/internal/metrics"
)

// VisionConfig holds the vision provider settings.
type VisionConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	Provider        string
	Temperature     float32
	MaxOutputTokens int
	Logger          *zap.Logger
}

// Vision extracts structured signals from product photos.
type Vision struct {
	client      *openai.Client
	model       string
	provider    string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewVision creates a vision signal extractor.
func NewVision(cfg *VisionConfig) *Vision {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Vision{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		provider:    cfg.Provider,
		temperature: normalizeTemperature(cfg.Temperature),
		maxTokens:   cfg.MaxOutputTokens,
		logger:      cfg.Logger,
	}
}

// ExtractSignals sends the image (and optional prompt text) to the
// vision model and decodes the structured signals from its reply.
// Unparsable output maps to domain.ErrProviderInvalidResponse.
func (v *Vision) ExtractSignals(
	ctx context.Context, imageBytes []byte, mimeType, prompt, requestID string,
) (signals.Signals, error) {
	parts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    dataURI(imageBytes, mimeType),
			Detail: openai.ImageURLDetailAuto,
		},
	}}
	if prompt != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: prompt,
		})
	}

	req := openai.ChatCompletionRequest{
		Model: v.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: visionSystemPrompt},
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		Temperature: v.temperature,
		MaxTokens:   v.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		User: requestID,
	}

	start := time.Now()
	resp, err := v.client.CreateChatCompletion(ctx, req)
	duration := time.Since(start)

	if err != nil {
		metrics.ProviderRequestsTotal.WithLabelValues(v.provider, "extract", "error").Inc()
		return signals.Signals{}, classifyError(v.provider, err)
	}

	metrics.ProviderRequestsTotal.WithLabelValues(v.provider, "extract", "success").Inc()
	metrics.ProviderRequestDuration.WithLabelValues(v.provider, "extract").Observe(duration.Seconds())

	if len(resp.Choices) == 0 {
		return signals.Signals{}, domain.NewProviderError(
			v.provider, 0, domain.ErrProviderInvalidResponse, "empty choices")
	}

	raw := stripFences(resp.Choices[0].Message.Content)

	var sig signals.Signals
	if err := json.Unmarshal([]byte(raw), &sig); err != nil {
		v.logger.Warn("vision output not valid JSON",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		return signals.Signals{}, domain.NewProviderError(
			v.provider, 0, domain.ErrProviderInvalidResponse, err.Error())
	}

	sig.Normalize()
	return sig, nil
}

// HealthCheck verifies API availability by listing models.
func (v *Vision) HealthCheck(ctx context.Context) error {
	if _, err := v.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", classifyError(v.provider, err))
	}
	return nil
}

func dataURI(imageBytes []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageBytes))
}
