package search

import (
	"context"

	"github.com/kailas-cloud/snapfind/internal/domain/catalog"
	domrerank "github.com/kailas-cloud/snapfind/internal/domain/rerank"
	"github.com/kailas-cloud/snapfind/internal/domain/search/criteria"
	"github.com/kailas-cloud/snapfind/internal/domain/search/plan"
	"github.com/kailas-cloud/snapfind/internal/domain/search/scored"
	domset "github.com/kailas-cloud/snapfind/internal/domain/settings"
	"github.com/kailas-cloud/snapfind/internal/domain/signals"
	domtel "github.com/kailas-cloud/snapfind/internal/domain/telemetry"
)

// SignalExtractor runs stage 1 and reports how many model calls it made.
type SignalExtractor interface {
	Extract(
		ctx context.Context, imageBytes []byte, mimeType, prompt, requestID string,
	) (signals.Signals, int, error)
}

// CandidateRetriever runs the relaxation ladder.
type CandidateRetriever interface {
	FindCandidates(ctx context.Context, c criteria.Criteria) ([]catalog.Product, plan.Plan, error)
}

// Reranker reorders a candidate subset via the external model.
type Reranker interface {
	Rerank(
		ctx context.Context, sig *signals.Signals, candidates []scored.Candidate,
		prompt string, weights *domset.Weights, requestID string,
	) (domrerank.Result, error)
}

// SettingsProvider exposes the current admin snapshot.
type SettingsProvider interface {
	Get() *domset.Admin
}

// TelemetryRecorder records one event per pipeline execution.
type TelemetryRecorder interface {
	Record(ev domtel.Event)
}
