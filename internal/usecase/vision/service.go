// Package vision wraps the vision model port with the extraction retry
// policy: schema-invalid replies are re-asked a bounded number of
// times with a short fixed delay, while auth, rate-limit, and network
// failures surface immediately.
package vision

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain"
	"github.com/kailas-cloud/snapfind/internal/domain/signals"
	"github.com/kailas-cloud/snapfind/internal/metrics"
	"github.com/kailas-cloud/snapfind/internal/retry"
)

// Service handles signal extraction.
type Service struct {
	extractor Extractor
	policy    retry.Policy
	logger    *zap.Logger
}

// New creates an extraction service.
func New(extractor Extractor, policy retry.Policy, logger *zap.Logger) *Service {
	return &Service{extractor: extractor, policy: policy, logger: logger}
}

// Extract runs signal extraction. Attempts reports how many model
// calls were made; callers flag a vision fallback when it exceeds one.
func (s *Service) Extract(
	ctx context.Context, imageBytes []byte, mimeType, prompt, requestID string,
) (signals.Signals, int, error) {
	var sig signals.Signals
	attempts := 0

	err := s.policy.Do(ctx, func(attempt int) error {
		attempts = attempt
		var opErr error
		sig, opErr = s.extractor.ExtractSignals(ctx, imageBytes, mimeType, prompt, requestID)
		return opErr
	}, func(err error) bool {
		// Only schema-invalid output is worth re-asking here.
		return errors.Is(err, domain.ErrProviderInvalidResponse)
	})
	if err != nil {
		return signals.Signals{}, attempts, err
	}

	if attempts > 1 {
		metrics.FallbacksTotal.WithLabelValues("vision_retry").Inc()
		s.logger.Info("vision extraction needed retries",
			zap.String("request_id", requestID),
			zap.Int("attempts", attempts),
		)
	}

	return sig, attempts, nil
}
