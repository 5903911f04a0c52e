// Package criteria defines the validated parameters for one catalog
// retrieval. Criteria parameterize the relaxation ladder and are never
// persisted.
package criteria

import "fmt"

// Retrieval limits.
const (
	DefaultLimit         = 60
	MaxLimit             = 200
	DefaultMinCandidates = 10
	MaxKeywords          = 10
)

// Range is an optional numeric bound. Nil ends are open.
type Range struct {
	Min *float64
	Max *float64
}

// Criteria is a validated retrieval request.
type Criteria struct {
	category      string
	productType   string
	keywords      []string
	price         Range
	width         Range
	height        Range
	depth         Range
	limit         int
	minCandidates int
}

// New validates and normalizes retrieval parameters. Empty category,
// type, and keywords are all permitted: the ladder decides which tiers
// the available inputs allow.
func New(
	category, productType string, keywords []string,
	price, width, height, depth Range,
	limit, minCandidates int,
) (Criteria, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if minCandidates <= 0 {
		minCandidates = DefaultMinCandidates
	}
	if minCandidates > limit {
		minCandidates = limit
	}
	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}
	for _, r := range []Range{price, width, height, depth} {
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return Criteria{}, fmt.Errorf("range min %v exceeds max %v", *r.Min, *r.Max)
		}
	}

	// Drop empty keyword strings so tier predicates stay meaningful.
	kept := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			kept = append(kept, kw)
		}
	}

	return Criteria{
		category: category, productType: productType, keywords: kept,
		price: price, width: width, height: height, depth: depth,
		limit: limit, minCandidates: minCandidates,
	}, nil
}

// Category returns the category filter, empty when confidence-gated out.
func (c *Criteria) Category() string { return c.category }

// Type returns the product type filter, empty when confidence-gated out.
func (c *Criteria) Type() string { return c.productType }

// Keywords returns the keyword terms for substring tiers.
func (c *Criteria) Keywords() []string { return c.keywords }

// Price returns the price bound.
func (c *Criteria) Price() Range { return c.price }

// Width returns the width bound.
func (c *Criteria) Width() Range { return c.width }

// Height returns the height bound.
func (c *Criteria) Height() Range { return c.height }

// Depth returns the depth bound.
func (c *Criteria) Depth() Range { return c.depth }

// Limit returns the per-tier result cap.
func (c *Criteria) Limit() int { return c.limit }

// MinCandidates returns the count at which the ladder stops relaxing.
func (c *Criteria) MinCandidates() int { return c.minCandidates }
