// Package settings defines the runtime-tunable admin configuration.
// The pipeline captures one immutable snapshot per request; operators
// replace the whole snapshot atomically through the settings provider.
package settings

import (
	"fmt"

	"github.com/kailas-cloud/snapfind/internal/domain"
)

// Weights holds the per-factor multipliers of the heuristic scorer.
type Weights struct {
	Text       float64 `yaml:"text" json:"text"`
	Category   float64 `yaml:"category" json:"category"`
	Type       float64 `yaml:"type" json:"type"`
	Attributes float64 `yaml:"attributes" json:"attributes"`
	Price      float64 `yaml:"price" json:"price"`
	Dimensions float64 `yaml:"dimensions" json:"dimensions"`
}

// Bands holds the match band cut points. High must not be below Medium.
type Bands struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

// Filters toggles the numeric pre-filters applied to every ladder tier.
type Filters struct {
	Price      bool `yaml:"price" json:"price"`
	Dimensions bool `yaml:"dimensions" json:"dimensions"`
}

// Thresholds gates vision confidences into retrieval criteria.
type Thresholds struct {
	Category float64 `yaml:"category" json:"category"`
	Type     float64 `yaml:"type" json:"type"`
}

// Timeouts holds per-stage and total budget ceilings in milliseconds.
type Timeouts struct {
	Stage1Ms int `yaml:"stage1_ms" json:"stage1_ms"`
	Stage2Ms int `yaml:"stage2_ms" json:"stage2_ms"`
	TotalMs  int `yaml:"total_ms" json:"total_ms"`
}

// Admin is one immutable configuration snapshot.
type Admin struct {
	CandidateLimit    int        `yaml:"candidate_limit" json:"candidate_limit"`
	MinCandidates     int        `yaml:"min_candidates" json:"min_candidates"`
	MaxDescriptionLen int        `yaml:"max_description_len" json:"max_description_len"`
	Filters           Filters    `yaml:"filters" json:"filters"`
	Thresholds        Thresholds `yaml:"thresholds" json:"thresholds"`
	Weights           Weights    `yaml:"weights" json:"weights"`
	Bands             Bands      `yaml:"bands" json:"bands"`
	RerankEnabled     bool       `yaml:"rerank_enabled" json:"rerank_enabled"`
	RerankTopM        int        `yaml:"rerank_top_m" json:"rerank_top_m"`
	OutputK           int        `yaml:"output_k" json:"output_k"`
	Timeouts          Timeouts   `yaml:"timeouts" json:"timeouts"`
}

// Default returns the baseline tuning used before any admin update.
func Default() Admin {
	return Admin{
		CandidateLimit:    60,
		MinCandidates:     10,
		MaxDescriptionLen: 400,
		Filters:           Filters{Price: true, Dimensions: false},
		Thresholds:        Thresholds{Category: 0.35, Type: 0.45},
		Weights: Weights{
			Text:       0.30,
			Category:   0.20,
			Type:       0.15,
			Attributes: 0.15,
			Price:      0.10,
			Dimensions: 0.10,
		},
		Bands:         Bands{High: 0.55, Medium: 0.30},
		RerankEnabled: true,
		RerankTopM:    20,
		OutputK:       12,
		Timeouts:      Timeouts{Stage1Ms: 20000, Stage2Ms: 25000, TotalMs: 60000},
	}
}

// Validate checks a snapshot for internal consistency.
func (a *Admin) Validate() error {
	if a.CandidateLimit <= 0 {
		return fmt.Errorf("%w: candidate_limit must be positive", domain.ErrInvalidSettings)
	}
	if a.MinCandidates <= 0 || a.MinCandidates > a.CandidateLimit {
		return fmt.Errorf("%w: min_candidates must be in [1, candidate_limit]", domain.ErrInvalidSettings)
	}
	if a.MaxDescriptionLen <= 0 {
		return fmt.Errorf("%w: max_description_len must be positive", domain.ErrInvalidSettings)
	}
	if a.Bands.High < a.Bands.Medium {
		return fmt.Errorf("%w: bands.high %.2f below bands.medium %.2f",
			domain.ErrInvalidSettings, a.Bands.High, a.Bands.Medium)
	}
	for name, v := range map[string]float64{
		"thresholds.category": a.Thresholds.Category,
		"thresholds.type":     a.Thresholds.Type,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in [0,1]", domain.ErrInvalidSettings, name)
		}
	}
	for name, v := range map[string]float64{
		"weights.text":       a.Weights.Text,
		"weights.category":   a.Weights.Category,
		"weights.type":       a.Weights.Type,
		"weights.attributes": a.Weights.Attributes,
		"weights.price":      a.Weights.Price,
		"weights.dimensions": a.Weights.Dimensions,
	} {
		if v < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidSettings, name)
		}
	}
	if a.RerankTopM <= 0 {
		return fmt.Errorf("%w: rerank_top_m must be positive", domain.ErrInvalidSettings)
	}
	if a.OutputK <= 0 {
		return fmt.Errorf("%w: output_k must be positive", domain.ErrInvalidSettings)
	}
	if a.Timeouts.Stage1Ms <= 0 || a.Timeouts.Stage2Ms <= 0 || a.Timeouts.TotalMs <= 0 {
		return fmt.Errorf("%w: timeout budgets must be positive", domain.ErrInvalidSettings)
	}
	return nil
}
