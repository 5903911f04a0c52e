// Package scoring implements the local heuristic scorer: a pure,
// deterministic weighted sum over match factors, computed without any
// external model call. Safe for concurrent use.
package scoring

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/kailas-cloud/snapfind/internal/domain/catalog"
	"github.com/kailas-cloud/snapfind/internal/domain/search/scored"
	"github.com/kailas-cloud/snapfind/internal/domain/settings"
	"github.com/kailas-cloud/snapfind/internal/domain/signals"
)

// Reason thresholds. A factor contributes a reason only when it clears
// its threshold; reasons are capped at scored.MaxReasons in factor
// priority order.
const (
	textReasonMin      = 0.6
	attributeReasonMin = 0.5
	priceReasonMin     = 0.8
	dimensionReasonMin = 0.8
)

// Score computes the weighted heuristic score of one candidate against
// the extracted signals. Inputs are never mutated; identical inputs
// produce identical output.
func Score(p catalog.Product, sig *signals.Signals, cfg *settings.Admin) scored.Candidate {
	haystack := strings.ToLower(p.Title() + " " + p.Description())
	w := cfg.Weights

	textScore := substringHitRatio(haystack, sig.Keywords)

	categoryScore := 0.0
	if p.Category() != "" && strings.EqualFold(p.Category(), sig.CategoryGuess.Value) {
		categoryScore = 1.0
	}

	typeScore := 0.0
	if p.Type() != "" && strings.EqualFold(p.Type(), sig.TypeGuess.Value) {
		typeScore = 1.0
	}

	attrScore := substringHitRatio(haystack, sig.AttributeTerms())

	total := textScore*w.Text + categoryScore*w.Category + typeScore*w.Type + attrScore*w.Attributes

	reasons := make([]string, 0, scored.MaxReasons)
	appendReason := func(cond bool, msg string) {
		if cond && len(reasons) < scored.MaxReasons {
			reasons = append(reasons, msg)
		}
	}

	appendReason(textScore > textReasonMin, "strong keyword overlap")
	appendReason(categoryScore == 1.0, fmt.Sprintf("exact category match: %s", p.Category()))
	appendReason(typeScore == 1.0, fmt.Sprintf("exact type match: %s", p.Type()))
	appendReason(attrScore > attributeReasonMin, "visual attributes present in listing")

	if sig.Intent != nil {
		if sig.Intent.PriceMin != nil || sig.Intent.PriceMax != nil {
			priceScore := priceProximity(p.Price(), sig.Intent.PriceMin, sig.Intent.PriceMax)
			total += priceScore * w.Price
			appendReason(priceScore > priceReasonMin, "price within budget")
		}
		if hasPreferredDimension(sig.Intent) {
			dimScore := dimensionProximity(&p, sig.Intent)
			total += dimScore * w.Dimensions
			appendReason(dimScore > dimensionReasonMin, "dimensions close to preference")
		}
	}

	return scored.New(p, total, bandFor(total, cfg.Bands), reasons)
}

// ScoreAll scores every candidate and sorts descending by score.
// The sort is stable: ties keep retrieval order.
func ScoreAll(products []catalog.Product, sig *signals.Signals, cfg *settings.Admin) []scored.Candidate {
	out := make([]scored.Candidate, 0, len(products))
	for _, p := range products {
		out = append(out, Score(p, sig, cfg))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	return out
}

// substringHitRatio returns the fraction of terms found as
// case-insensitive substrings of haystack. Zero when no terms.
func substringHitRatio(haystack string, terms []string) float64 {
	if len(terms) == 0 {
		return 0
	}
	hits := 0
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(haystack, strings.ToLower(term)) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// priceProximity is 1 inside [min,max] and decays linearly with the
// relative overshoot or undershoot, floored at 0.
func priceProximity(price float64, priceMin, priceMax *float64) float64 {
	if priceMax != nil && price > *priceMax {
		if *priceMax <= 0 {
			return 0
		}
		return math.Max(0, 1-(price-*priceMax)/(*priceMax))
	}
	if priceMin != nil && price < *priceMin {
		if *priceMin <= 0 {
			return 0
		}
		return math.Max(0, 1-(*priceMin-price)/(*priceMin))
	}
	return 1
}

func hasPreferredDimension(in *signals.Intent) bool {
	return in.PreferredWidth != nil || in.PreferredHeight != nil || in.PreferredDepth != nil
}

// dimensionProximity averages per-axis closeness max(0, 1-2|Δ|/pref)
// over the axes where both a preference and a candidate dimension
// exist. When no axis is comparable it returns the neutral 0.5.
func dimensionProximity(p *catalog.Product, in *signals.Intent) float64 {
	type axis struct {
		preferred *float64
		actual    *float64
	}
	axes := []axis{
		{in.PreferredWidth, p.Width()},
		{in.PreferredHeight, p.Height()},
		{in.PreferredDepth, p.Depth()},
	}

	sum := 0.0
	n := 0
	for _, a := range axes {
		if a.preferred == nil || a.actual == nil || *a.preferred <= 0 {
			continue
		}
		delta := math.Abs(*a.actual - *a.preferred)
		sum += math.Max(0, 1-2*delta/(*a.preferred))
		n++
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

func bandFor(score float64, bands settings.Bands) scored.Band {
	switch {
	case score >= bands.High:
		return scored.High
	case score >= bands.Medium:
		return scored.Medium
	default:
		return scored.Low
	}
}
