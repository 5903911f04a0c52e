package retrieval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain/catalog"
	"github.com/kailas-cloud/snapfind/internal/domain/search/criteria"
	"github.com/kailas-cloud/snapfind/internal/domain/search/plan"
)

// --- Mocks ---

type queryLog struct {
	filter criteria.Filter
	limit  int
}

type mockRepo struct {
	// results maps a tier signature to the products it returns.
	results map[string][]catalog.Product
	queries []queryLog
	err     error
}

func tierKey(f criteria.Filter) string {
	return fmt.Sprintf("cat=%s type=%s or=%t kw=%d",
		f.Category, f.Type, f.CategoryOrType, len(f.Keywords))
}

func (m *mockRepo) FindByFilter(_ context.Context, f criteria.Filter, limit int) ([]catalog.Product, error) {
	m.queries = append(m.queries, queryLog{filter: f, limit: limit})
	if m.err != nil {
		return nil, m.err
	}
	return m.results[tierKey(f)], nil
}

func (m *mockRepo) GetByID(_ context.Context, _ string) (catalog.Product, error) {
	return catalog.Product{}, errors.New("not used")
}

func (m *mockRepo) FindByTitle(_ context.Context, _ string) (catalog.Product, error) {
	return catalog.Product{}, errors.New("not used")
}

// --- Helpers ---

func products(n int) []catalog.Product {
	out := make([]catalog.Product, n)
	for i := range out {
		out[i] = catalog.New(fmt.Sprintf("p%d", i), "title", "", "", 0, nil, nil, nil, "")
	}
	return out
}

func mustCriteria(t *testing.T, category, productType string, keywords []string) criteria.Criteria {
	t.Helper()
	c, err := criteria.New(category, productType, keywords,
		criteria.Range{}, criteria.Range{}, criteria.Range{}, criteria.Range{}, 60, 10)
	if err != nil {
		t.Fatalf("build criteria: %v", err)
	}
	return c
}

// --- Tests ---

func TestFindCandidates_StrictTierSatisfies(t *testing.T) {
	repo := &mockRepo{results: map[string][]catalog.Product{
		"cat=sofa type=loveseat or=false kw=2": products(15),
	}}
	svc := New(repo, zap.NewNop())

	got, p, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "sofa", "loveseat", []string{"velvet", "tufted"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != plan.A {
		t.Errorf("expected plan A, got %s", p)
	}
	if len(got) != 15 {
		t.Errorf("expected 15 products, got %d", len(got))
	}
	if len(repo.queries) != 1 {
		t.Errorf("expected 1 query, got %d", len(repo.queries))
	}
}

func TestFindCandidates_RelaxesToSecondTier(t *testing.T) {
	repo := &mockRepo{results: map[string][]catalog.Product{
		"cat=sofa type=loveseat or=false kw=2": products(2),
		"cat=sofa type= or=false kw=2":         products(12),
	}}
	svc := New(repo, zap.NewNop())

	got, p, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "sofa", "loveseat", []string{"velvet", "tufted"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != plan.B {
		t.Errorf("expected plan B, got %s", p)
	}
	if len(got) != 12 {
		t.Errorf("expected 12 products, got %d", len(got))
	}
}

func TestFindCandidates_SkipsTiersMissingInputs(t *testing.T) {
	// No type: tier A unusable, ladder starts at B.
	repo := &mockRepo{results: map[string][]catalog.Product{
		"cat=sofa type= or=false kw=1": products(10),
	}}
	svc := New(repo, zap.NewNop())

	_, p, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "sofa", "", []string{"velvet"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != plan.B {
		t.Errorf("expected plan B, got %s", p)
	}
	if len(repo.queries) != 1 {
		t.Errorf("expected tier A skipped, got %d queries", len(repo.queries))
	}
}

func TestFindCandidates_BestSoFarKeepsLargest(t *testing.T) {
	repo := &mockRepo{results: map[string][]catalog.Product{
		"cat=sofa type=loveseat or=false kw=1": products(3),
		"cat=sofa type= or=false kw=1":         products(7),
		"cat= type= or=false kw=1":             products(5),
		"cat=sofa type=loveseat or=true kw=0":  products(4),
	}}
	svc := New(repo, zap.NewNop())

	got, p, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "sofa", "loveseat", []string{"velvet"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != plan.B {
		t.Errorf("expected plan B (largest partial), got %s", p)
	}
	if len(got) != 7 {
		t.Errorf("expected 7 products, got %d", len(got))
	}
	if len(repo.queries) != 4 {
		t.Errorf("expected all 4 tiers attempted, got %d", len(repo.queries))
	}
}

func TestFindCandidates_EqualCountsKeepStricterTier(t *testing.T) {
	repo := &mockRepo{results: map[string][]catalog.Product{
		"cat=sofa type=loveseat or=false kw=1": products(4),
		"cat=sofa type= or=false kw=1":         products(4),
		"cat= type= or=false kw=1":             products(4),
		"cat=sofa type=loveseat or=true kw=0":  products(4),
	}}
	svc := New(repo, zap.NewNop())

	_, p, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "sofa", "loveseat", []string{"velvet"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != plan.A {
		t.Errorf("expected plan A on tie, got %s", p)
	}
}

func TestFindCandidates_AllEmptyTagsLastAttempt(t *testing.T) {
	repo := &mockRepo{results: map[string][]catalog.Product{}}
	svc := New(repo, zap.NewNop())

	got, p, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "sofa", "loveseat", []string{"velvet"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
	if p != plan.D {
		t.Errorf("expected last attempted tag D, got %s", p)
	}
}

func TestFindCandidates_NoUsableTierRunsBroadQuery(t *testing.T) {
	repo := &mockRepo{results: map[string][]catalog.Product{
		"cat= type= or=false kw=0": products(3),
	}}
	svc := New(repo, zap.NewNop())

	got, p, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "", "", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != plan.Text {
		t.Errorf("expected TEXT plan, got %s", p)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 products, got %d", len(got))
	}
	if len(repo.queries) != 1 {
		t.Errorf("expected a single broad query, got %d", len(repo.queries))
	}
}

func TestFindCandidates_RepositoryErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	repo := &mockRepo{err: boom}
	svc := New(repo, zap.NewNop())

	_, _, err := svc.FindCandidates(context.Background(),
		mustCriteria(t, "sofa", "", []string{"velvet"}))
	if !errors.Is(err, boom) {
		t.Errorf("expected repository error, got %v", err)
	}
}

func TestFindCandidates_NumericRangesCarriedIntoEveryTier(t *testing.T) {
	lo, hi := 100.0, 300.0
	c, err := criteria.New("sofa", "loveseat", []string{"velvet"},
		criteria.Range{Min: &lo, Max: &hi},
		criteria.Range{}, criteria.Range{}, criteria.Range{}, 60, 10)
	if err != nil {
		t.Fatalf("build criteria: %v", err)
	}

	repo := &mockRepo{results: map[string][]catalog.Product{}}
	svc := New(repo, zap.NewNop())

	if _, _, err := svc.FindCandidates(context.Background(), c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, q := range repo.queries {
		if q.filter.Price.Min == nil || *q.filter.Price.Min != lo {
			t.Errorf("query %d: price min not carried", i)
		}
		if q.filter.Price.Max == nil || *q.filter.Price.Max != hi {
			t.Errorf("query %d: price max not carried", i)
		}
		if q.limit != 60 {
			t.Errorf("query %d: expected limit 60, got %d", i, q.limit)
		}
	}
}
