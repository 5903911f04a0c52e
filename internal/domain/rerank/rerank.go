// Package rerank defines the wire schema exchanged with the external
// reranking model. The payload is versioned so both sides can evolve
// independently; exported JSON-tagged structs mirror what crosses the
// port boundary.
package rerank

import "github.com/kailas-cloud/snapfind/internal/domain/signals"

// SchemaVersion is the current rerank payload schema version.
const SchemaVersion = 1

// CandidatePayload is one candidate as presented to the model.
type CandidatePayload struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Price       float64  `json:"price"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
	Description string   `json:"description,omitempty"`
	Score       float64  `json:"heuristic_score"`
}

// WeightsPayload tells the model how the heuristic weighed each factor.
type WeightsPayload struct {
	Text       float64 `json:"text"`
	Category   float64 `json:"category"`
	Type       float64 `json:"type"`
	Attributes float64 `json:"attributes"`
	Price      float64 `json:"price"`
	Dimensions float64 `json:"dimensions"`
}

// Request is the versioned payload sent to the reranking model.
type Request struct {
	SchemaVersion int                `json:"schema_version"`
	Prompt        string             `json:"prompt,omitempty"`
	Signals       signals.Signals    `json:"signals"`
	Candidates    []CandidatePayload `json:"candidates"`
	Weights       *WeightsPayload    `json:"weights,omitempty"`
}

// Response is the raw shape decoded from model output, before
// post-processing filters and back-fills the id list.
type Response struct {
	RankedIDs  []string            `json:"ranked_ids"`
	Reasons    map[string][]string `json:"reasons,omitempty"`
	MatchBands map[string]string   `json:"match_bands,omitempty"`
}

// Result is the post-processed outcome: RankedIDs is always an exact
// permutation of the input candidate id set.
type Result struct {
	RankedIDs  []string
	Reasons    map[string][]string
	MatchBands map[string]string
}
