// Package scored defines heuristic scoring output: a candidate with
// its weighted score, coarse match band, and human-readable reasons.
package scored

import "github.com/kailas-cloud/snapfind/internal/domain/catalog"

// Band is the coarse relevance tier derived from score cut points.
type Band string

const (
	// High marks candidates at or above the high cut point.
	High Band = "HIGH"
	// Medium marks candidates at or above the medium cut point.
	Medium Band = "MEDIUM"
	// Low marks everything else.
	Low Band = "LOW"
)

// MaxReasons caps the reasons attached to one candidate.
const MaxReasons = 3

// Candidate is a catalog product with its heuristic score attached.
type Candidate struct {
	product catalog.Product
	score   float64
	band    Band
	reasons []string
}

// New creates a scored candidate. Reasons beyond MaxReasons are dropped.
func New(product catalog.Product, score float64, band Band, reasons []string) Candidate {
	if len(reasons) > MaxReasons {
		reasons = reasons[:MaxReasons]
	}
	return Candidate{product: product, score: score, band: band, reasons: reasons}
}

// Product returns the underlying catalog product.
func (c *Candidate) Product() catalog.Product { return c.product }

// ID returns the product identifier.
func (c *Candidate) ID() string { return c.product.ID() }

// Score returns the weighted heuristic score. Scores are weighted sums
// and are never renormalized.
func (c *Candidate) Score() float64 { return c.score }

// Band returns the match band.
func (c *Candidate) Band() Band { return c.band }

// Reasons returns up to MaxReasons explanation strings.
func (c *Candidate) Reasons() []string { return c.reasons }

// WithBand returns a copy carrying a different band (reranker override).
func (c *Candidate) WithBand(b Band) Candidate {
	out := *c
	out.band = b
	return out
}
