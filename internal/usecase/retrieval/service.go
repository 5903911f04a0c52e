// Package retrieval implements candidate retrieval as a relaxation
// ladder: progressively looser tier queries run until one yields
// enough candidates, trading precision for guaranteed recall when the
// vision signals are uncertain. Queries are bounded by the criteria
// limit, never unbounded.
package retrieval

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain/catalog"
	"github.com/kailas-cloud/snapfind/internal/domain/search/criteria"
	"github.com/kailas-cloud/snapfind/internal/domain/search/plan"
)

// Service runs the relaxation ladder over the catalog repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a retrieval service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// tier describes one rung of the ladder.
type tier struct {
	tag    plan.Plan
	usable func(c *criteria.Criteria) bool
	filter func(c *criteria.Criteria) criteria.Filter
}

// Tiers in strictness order. Each is skipped when its required inputs
// are absent.
var tiers = []tier{
	{
		// Category AND type AND keywords.
		tag: plan.A,
		usable: func(c *criteria.Criteria) bool {
			return c.Category() != "" && c.Type() != "" && len(c.Keywords()) > 0
		},
		filter: func(c *criteria.Criteria) criteria.Filter {
			return baseFilter(c, c.Category(), c.Type(), false, c.Keywords())
		},
	},
	{
		// Category AND keywords; type dropped.
		tag: plan.B,
		usable: func(c *criteria.Criteria) bool {
			return c.Category() != "" && len(c.Keywords()) > 0
		},
		filter: func(c *criteria.Criteria) criteria.Filter {
			return baseFilter(c, c.Category(), "", false, c.Keywords())
		},
	},
	{
		// Keywords only, recall-oriented.
		tag: plan.C,
		usable: func(c *criteria.Criteria) bool {
			return len(c.Keywords()) > 0
		},
		filter: func(c *criteria.Criteria) criteria.Filter {
			return baseFilter(c, "", "", false, c.Keywords())
		},
	},
	{
		// Category OR type, no keyword constraint.
		tag: plan.D,
		usable: func(c *criteria.Criteria) bool {
			return c.Category() != "" || c.Type() != ""
		},
		filter: func(c *criteria.Criteria) criteria.Filter {
			return baseFilter(c, c.Category(), c.Type(), true, nil)
		},
	},
}

func baseFilter(c *criteria.Criteria, category, productType string, orJoin bool, keywords []string) criteria.Filter {
	return criteria.Filter{
		Category:       category,
		Type:           productType,
		CategoryOrType: orJoin,
		Keywords:       keywords,
		Price:          c.Price(),
		Width:          c.Width(),
		Height:         c.Height(),
		Depth:          c.Depth(),
	}
}

// FindCandidates walks the ladder. It returns as soon as a tier yields
// at least MinCandidates results; otherwise it keeps the largest set
// seen, preferring the earlier (stricter) tier on equal counts. When
// every tier is skipped, a single broad query runs under the TEXT tag.
func (s *Service) FindCandidates(ctx context.Context, c criteria.Criteria) ([]catalog.Product, plan.Plan, error) {
	var (
		best      []catalog.Product
		bestPlan  plan.Plan
		attempted bool
	)

	for _, t := range tiers {
		if !t.usable(&c) {
			continue
		}
		attempted = true

		products, err := s.repo.FindByFilter(ctx, t.filter(&c), c.Limit())
		if err != nil {
			return nil, "", err
		}

		s.logger.Debug("ladder tier attempted",
			zap.String("plan", string(t.tag)),
			zap.Int("count", len(products)),
		)

		if len(products) >= c.MinCandidates() {
			return products, t.tag, nil
		}
		if len(products) > len(best) || bestPlan == "" {
			best, bestPlan = products, t.tag
		} else if len(best) == 0 {
			// Every tier empty so far: the tag tracks the last attempt.
			bestPlan = t.tag
		}
	}

	if !attempted {
		products, err := s.repo.FindByFilter(ctx, baseFilter(&c, "", "", false, nil), c.Limit())
		if err != nil {
			return nil, "", err
		}
		return products, plan.Text, nil
	}

	return best, bestPlan, nil
}
