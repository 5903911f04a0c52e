// Package rerank drives the external ranking model through a two-level
// state machine: bounded outer attempts with exponential backoff, and
// a nested bounded repair loop for malformed structured output. Auth
// failures abort immediately at either level.
package rerank

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain"
	domrerank "github.com/kailas-cloud/snapfind/internal/domain/rerank"
	"github.com/kailas-cloud/snapfind/internal/domain/search/scored"
	"github.com/kailas-cloud/snapfind/internal/domain/settings"
	"github.com/kailas-cloud/snapfind/internal/domain/signals"
	"github.com/kailas-cloud/snapfind/internal/retry"
)

// Default retry bounds and backoff shape for the two loops.
const (
	DefaultMaxAttempts       = 3
	DefaultMaxRepairAttempts = 2
	backoffBase              = 1 * time.Second
	backoffCap               = 5 * time.Second
)

// Service reranks a candidate subset via the external model.
type Service struct {
	client      Client
	attemptLoop retry.Policy
	repairLoop  retry.Policy
	logger      *zap.Logger
}

// New creates a rerank service with the default retry policies.
func New(client Client, logger *zap.Logger) *Service {
	return &Service{
		client:      client,
		attemptLoop: retry.New(DefaultMaxAttempts, retry.Exponential(backoffBase, backoffCap)),
		repairLoop:  retry.New(DefaultMaxRepairAttempts, nil),
		logger:      logger,
	}
}

// WithPolicies overrides both retry policies (deterministic tests).
func (s *Service) WithPolicies(attempts, repairs retry.Policy) *Service {
	s.attemptLoop = attempts
	s.repairLoop = repairs
	return s
}

// Rerank sends the candidate subset through the state machine and
// returns a result whose RankedIDs is a permutation of the candidate
// ids. Zero candidates short-circuit to an empty result with no model
// call. Exhaustion of all attempts surfaces an internal error.
func (s *Service) Rerank(
	ctx context.Context,
	sig *signals.Signals,
	candidates []scored.Candidate,
	prompt string,
	weights *settings.Weights,
	requestID string,
) (domrerank.Result, error) {
	if len(candidates) == 0 {
		return domrerank.Result{}, nil
	}

	payload := buildPayload(sig, candidates, prompt, weights)
	inputIDs := make([]string, len(candidates))
	for i := range candidates {
		inputIDs[i] = candidates[i].ID()
	}

	var result domrerank.Result

	err := s.attemptLoop.Do(ctx, func(attempt int) error {
		raw, err := s.client.Complete(ctx, payload, requestID)
		if err != nil {
			return err
		}

		resp, parseErr := parseResponse(raw)
		if parseErr != nil {
			s.logger.Warn("rerank output malformed, entering repair",
				zap.String("request_id", requestID),
				zap.Int("attempt", attempt),
			)
			resp, parseErr = s.repair(ctx, raw, requestID)
			if parseErr != nil {
				// Repair exhausted: counts as a failed outer attempt.
				return parseErr
			}
		}

		result = postProcess(&resp, inputIDs)
		return nil
	}, domain.IsRetryable)
	if err != nil {
		if errors.Is(err, domain.ErrProviderAuth) || errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return domrerank.Result{}, err
		}
		return domrerank.Result{}, fmt.Errorf("%w: rerank attempts exhausted: %s",
			domain.ErrInternal, err.Error())
	}

	return result, nil
}

// repair runs the nested repair loop over one malformed reply.
func (s *Service) repair(ctx context.Context, malformed, requestID string) (domrerank.Response, error) {
	var resp domrerank.Response

	err := s.repairLoop.Do(ctx, func(int) error {
		raw, err := s.client.Repair(ctx, malformed, requestID)
		if err != nil {
			return err
		}
		resp, err = parseResponse(raw)
		return err
	}, domain.IsRetryable)

	return resp, err
}

func buildPayload(
	sig *signals.Signals, candidates []scored.Candidate, prompt string, weights *settings.Weights,
) *domrerank.Request {
	payload := &domrerank.Request{
		SchemaVersion: domrerank.SchemaVersion,
		Prompt:        prompt,
		Signals:       *sig,
		Candidates:    make([]domrerank.CandidatePayload, 0, len(candidates)),
	}
	if weights != nil {
		payload.Weights = &domrerank.WeightsPayload{
			Text:       weights.Text,
			Category:   weights.Category,
			Type:       weights.Type,
			Attributes: weights.Attributes,
			Price:      weights.Price,
			Dimensions: weights.Dimensions,
		}
	}

	for i := range candidates {
		p := candidates[i].Product()
		payload.Candidates = append(payload.Candidates, domrerank.CandidatePayload{
			ID:          p.ID(),
			Title:       p.Title(),
			Category:    p.Category(),
			Type:        p.Type(),
			Price:       p.Price(),
			Width:       p.Width(),
			Height:      p.Height(),
			Depth:       p.Depth(),
			Description: p.Description(),
			Score:       candidates[i].Score(),
		})
	}
	return payload
}
