// Package search sequences the image search pipeline: signal
// extraction, confidence-gated candidate retrieval, heuristic scoring,
// and optional model reranking, producing a ranked bounded result list
// with per-stage timings and fallback notices. Stages run strictly
// sequentially; the only shared state across requests is the settings
// snapshot and the telemetry sink.
package search

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain"
	"github.com/kailas-cloud/snapfind/internal/domain/search/criteria"
	"github.com/kailas-cloud/snapfind/internal/domain/search/plan"
	"github.com/kailas-cloud/snapfind/internal/domain/search/scored"
	domset "github.com/kailas-cloud/snapfind/internal/domain/settings"
	"github.com/kailas-cloud/snapfind/internal/domain/signals"
	domtel "github.com/kailas-cloud/snapfind/internal/domain/telemetry"
	"github.com/kailas-cloud/snapfind/internal/metrics"
	"github.com/kailas-cloud/snapfind/internal/usecase/scoring"
)

// Service orchestrates the image search pipeline.
type Service struct {
	extractor SignalExtractor
	retriever CandidateRetriever
	reranker  Reranker
	settings  SettingsProvider
	telemetry TelemetryRecorder
	logger    *zap.Logger
}

// New creates the orchestrator with explicit dependencies.
func New(
	extractor SignalExtractor,
	retriever CandidateRetriever,
	reranker Reranker,
	settings SettingsProvider,
	telemetry TelemetryRecorder,
	logger *zap.Logger,
) *Service {
	return &Service{
		extractor: extractor,
		retriever: retriever,
		reranker:  reranker,
		settings:  settings,
		telemetry: telemetry,
		logger:    logger,
	}
}

// Request is one search invocation.
type Request struct {
	ImageBytes []byte
	MimeType   string
	Prompt     string
	RequestID  string
}

// Response is the pipeline outcome.
type Response struct {
	RequestID string
	Prompt    string
	Signals   signals.Signals
	Results   []scored.Candidate
	Reasons   map[string][]string
	Timings   domtel.Timings
	Notices   []Notice
}

// Search runs the full pipeline for one request.
func (s *Service) Search(ctx context.Context, req *Request) (*Response, error) {
	cfg := s.settings.Get()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeouts.TotalMs)*time.Millisecond)
	defer cancel()

	started := time.Now()
	var (
		timings   domtel.Timings
		counts    domtel.Counts
		fallbacks domtel.Fallbacks
		notices   []Notice
	)

	// Stage 1: signal extraction.
	extractStart := time.Now()
	sig, attempts, err := s.extractSignals(ctx, cfg, req, requestID)
	timings.Extract = time.Since(extractStart)
	if err != nil {
		timings.Total = time.Since(started)
		s.recordEvent(requestID, "", timings, counts, fallbacks, err)
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	fallbacks.Vision = attempts > 1

	// Confidence gating: an unsure category forces the broad tiers.
	gatedCategory, gatedType := gateByConfidence(&sig, cfg)
	if gatedCategory == "" {
		fallbacks.BroadRetrieval = true
		metrics.FallbacksTotal.WithLabelValues("broad_retrieval").Inc()
	}
	if sig.CategoryGuess.Confidence < cfg.Thresholds.Category {
		notices = append(notices, NoticeLowConfidenceCategory)
	}
	if sig.TypeGuess.Confidence < cfg.Thresholds.Type {
		notices = append(notices, NoticeLowConfidenceType)
	}

	crit, err := buildCriteria(&sig, cfg, gatedCategory, gatedType)
	if err != nil {
		timings.Total = time.Since(started)
		s.recordEvent(requestID, "", timings, counts, fallbacks, err)
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// Stage 2: candidate retrieval.
	retrieveStart := time.Now()
	candidates, planTag, err := s.retriever.FindCandidates(ctx, crit)
	timings.Retrieve = time.Since(retrieveStart)
	if err != nil {
		timings.Total = time.Since(started)
		s.recordEvent(requestID, planTag, timings, counts, fallbacks, err)
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	counts.Retrieved = len(candidates)
	metrics.RetrievalPlanTotal.WithLabelValues(string(planTag)).Inc()

	// No candidates is a valid empty outcome, never an error.
	if len(candidates) == 0 {
		timings.Total = time.Since(started)
		s.recordEvent(requestID, planTag, timings, counts, fallbacks, nil)
		metrics.SearchRequestsTotal.WithLabelValues("empty").Inc()
		return &Response{
			RequestID: requestID,
			Prompt:    req.Prompt,
			Signals:   sig,
			Results:   []scored.Candidate{},
			Timings:   timings,
			Notices:   notices,
		}, nil
	}

	// Stage 3: heuristic scoring, stable-sorted descending.
	scoreStart := time.Now()
	ranked := scoring.ScoreAll(candidates, &sig, cfg)
	timings.Score = time.Since(scoreStart)

	// Stage 4: model reranking of the top-M subset.
	reasons := map[string][]string{}
	if cfg.RerankEnabled {
		rerankStart := time.Now()
		var rerankErr error
		ranked, reasons, counts.Reranked, rerankErr = s.rerankTop(ctx, cfg, &sig, ranked, req.Prompt, requestID)
		timings.Rerank = time.Since(rerankStart)
		if rerankErr != nil {
			if errors.Is(rerankErr, domain.ErrProviderAuth) {
				timings.Total = time.Since(started)
				s.recordEvent(requestID, planTag, timings, counts, fallbacks, rerankErr)
				metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
				return nil, rerankErr
			}
			// Everything else recovers to the heuristic order.
			fallbacks.Rerank = true
			notices = append(notices, NoticeRerankFailed)
			metrics.FallbacksTotal.WithLabelValues("rerank").Inc()
			s.logger.Warn("rerank failed, keeping heuristic order",
				zap.String("request_id", requestID),
				zap.Error(rerankErr),
			)
		}
	} else {
		notices = append(notices, NoticeRerankDisabled)
	}

	if len(ranked) > cfg.OutputK {
		ranked = ranked[:cfg.OutputK]
	}
	counts.Returned = len(ranked)

	timings.Total = time.Since(started)
	s.recordEvent(requestID, planTag, timings, counts, fallbacks, nil)
	metrics.SearchRequestsTotal.WithLabelValues("success").Inc()
	for stage, d := range map[string]time.Duration{
		"extract":  timings.Extract,
		"retrieve": timings.Retrieve,
		"score":    timings.Score,
		"rerank":   timings.Rerank,
	} {
		metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
	}

	return &Response{
		RequestID: requestID,
		Prompt:    req.Prompt,
		Signals:   sig,
		Results:   ranked,
		Reasons:   reasons,
		Timings:   timings,
		Notices:   notices,
	}, nil
}

func (s *Service) extractSignals(
	ctx context.Context, cfg *domset.Admin, req *Request, requestID string,
) (signals.Signals, int, error) {
	stageCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeouts.Stage1Ms)*time.Millisecond)
	defer cancel()
	return s.extractor.Extract(stageCtx, req.ImageBytes, req.MimeType, req.Prompt, requestID)
}

// rerankTop sends the top-M candidates through the reranker and stitches
// the reordered subset back in front of the untouched tail.
func (s *Service) rerankTop(
	ctx context.Context, cfg *domset.Admin, sig *signals.Signals,
	ranked []scored.Candidate, prompt, requestID string,
) ([]scored.Candidate, map[string][]string, int, error) {
	topM := cfg.RerankTopM
	if topM > len(ranked) {
		topM = len(ranked)
	}
	head, tail := ranked[:topM], ranked[topM:]

	stageCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeouts.Stage2Ms)*time.Millisecond)
	defer cancel()

	result, err := s.reranker.Rerank(stageCtx, sig, head, prompt, &cfg.Weights, requestID)
	if err != nil {
		return ranked, nil, 0, err
	}

	byID := make(map[string]scored.Candidate, len(head))
	for i := range head {
		byID[head[i].ID()] = head[i]
	}

	out := make([]scored.Candidate, 0, len(ranked))
	for _, id := range result.RankedIDs {
		c := byID[id]
		if band, ok := result.MatchBands[id]; ok {
			if b := parseBand(band); b != "" {
				c = c.WithBand(b)
			}
		}
		out = append(out, c)
	}
	out = append(out, tail...)

	return out, result.Reasons, topM, nil
}

func parseBand(raw string) scored.Band {
	switch scored.Band(raw) {
	case scored.High, scored.Medium, scored.Low:
		return scored.Band(raw)
	}
	return ""
}

// gateByConfidence passes category only when its confidence clears the
// threshold, and type only when category passed and its own confidence
// clears too.
func gateByConfidence(sig *signals.Signals, cfg *domset.Admin) (category, productType string) {
	if sig.CategoryGuess.Confidence >= cfg.Thresholds.Category {
		category = sig.CategoryGuess.Value
		if sig.TypeGuess.Confidence >= cfg.Thresholds.Type {
			productType = sig.TypeGuess.Value
		}
	}
	return category, productType
}

func buildCriteria(
	sig *signals.Signals, cfg *domset.Admin, category, productType string,
) (criteria.Criteria, error) {
	var price, width, height, depth criteria.Range
	if in := sig.Intent; in != nil {
		if cfg.Filters.Price {
			price = criteria.Range{Min: in.PriceMin, Max: in.PriceMax}
		}
		if cfg.Filters.Dimensions {
			// Preferred sizes are targets, not bounds; pre-filter only
			// cuts products more than 50% off target, proximity stays
			// the scorer's job.
			width = toleranceRange(in.PreferredWidth)
			height = toleranceRange(in.PreferredHeight)
			depth = toleranceRange(in.PreferredDepth)
		}
	}

	return criteria.New(
		category, productType, sig.Keywords,
		price, width, height, depth,
		cfg.CandidateLimit, cfg.MinCandidates,
	)
}

func toleranceRange(preferred *float64) criteria.Range {
	if preferred == nil || *preferred <= 0 {
		return criteria.Range{}
	}
	lo, hi := *preferred*0.5, *preferred*1.5
	return criteria.Range{Min: &lo, Max: &hi}
}

func (s *Service) recordEvent(
	requestID string, planTag plan.Plan,
	timings domtel.Timings, counts domtel.Counts, fallbacks domtel.Fallbacks, err error,
) {
	ev := domtel.Event{
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Plan:      planTag,
		Timings:   timings,
		Counts:    counts,
		Fallbacks: fallbacks,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.telemetry.Record(ev)
}
