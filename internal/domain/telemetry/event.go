// Package telemetry defines the per-request pipeline summary event and
// the operator feedback attached to it after the fact.
package telemetry

import (
	"time"

	"github.com/kailas-cloud/snapfind/internal/domain/search/plan"
)

// Vote is a thumbs up/down judgment on one returned result.
type Vote string

const (
	// ThumbsUp marks a relevant result.
	ThumbsUp Vote = "thumbs_up"
	// ThumbsDown marks an irrelevant result.
	ThumbsDown Vote = "thumbs_down"
)

// Timings records per-stage wall-clock durations.
type Timings struct {
	Extract  time.Duration
	Retrieve time.Duration
	Score    time.Duration
	Rerank   time.Duration
	Total    time.Duration
}

// Counts records candidate volumes at each stage boundary.
type Counts struct {
	Retrieved int
	Reranked  int
	Returned  int
}

// Fallbacks flags the degradation paths taken during one run.
type Fallbacks struct {
	Vision         bool
	Rerank         bool
	BroadRetrieval bool
}

// Feedback is attached to an event by request id after results are seen.
type Feedback struct {
	Items map[string]Vote
	Notes string
}

// Event is the summary of one pipeline execution.
type Event struct {
	RequestID string
	Timestamp time.Time
	Plan      plan.Plan
	Timings   Timings
	Counts    Counts
	Fallbacks Fallbacks
	Error     string
	Feedback  *Feedback
}
