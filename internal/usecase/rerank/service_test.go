package rerank

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain"
	"github.com/kailas-cloud/snapfind/internal/domain/catalog"
	domrerank "github.com/kailas-cloud/snapfind/internal/domain/rerank"
	"github.com/kailas-cloud/snapfind/internal/domain/search/scored"
	"github.com/kailas-cloud/snapfind/internal/domain/settings"
	"github.com/kailas-cloud/snapfind/internal/domain/signals"
	"github.com/kailas-cloud/snapfind/internal/retry"
)

// --- Mocks ---

type mockClient struct {
	completeReplies []string
	completeErrs    []error
	completeCalls   int

	repairReplies []string
	repairErrs    []error
	repairCalls   int

	lastPayload *domrerank.Request
}

func (m *mockClient) Complete(_ context.Context, payload *domrerank.Request, _ string) (string, error) {
	i := m.completeCalls
	m.completeCalls++
	m.lastPayload = payload
	if i < len(m.completeErrs) && m.completeErrs[i] != nil {
		return "", m.completeErrs[i]
	}
	if i < len(m.completeReplies) {
		return m.completeReplies[i], nil
	}
	return "", errors.New("unexpected complete call")
}

func (m *mockClient) Repair(_ context.Context, _ string, _ string) (string, error) {
	i := m.repairCalls
	m.repairCalls++
	if i < len(m.repairErrs) && m.repairErrs[i] != nil {
		return "", m.repairErrs[i]
	}
	if i < len(m.repairReplies) {
		return m.repairReplies[i], nil
	}
	return "", errors.New("unexpected repair call")
}

// --- Helpers ---

func instantPolicies(attempts, repairs int) (retry.Policy, retry.Policy) {
	noSleep := func(context.Context, time.Duration) error { return nil }
	a := retry.Policy{MaxAttempts: attempts, SleepFn: noSleep}
	r := retry.Policy{MaxAttempts: repairs, SleepFn: noSleep}
	return a, r
}

func testCandidates(n int) []scored.Candidate {
	out := make([]scored.Candidate, n)
	for i := range out {
		p := catalog.New(fmt.Sprintf("p%d", i), "title", "sofa", "", 100, nil, nil, nil, "")
		out[i] = scored.New(p, 0.5, scored.Medium, nil)
	}
	return out
}

func newTestService(client *mockClient, attempts, repairs int) *Service {
	a, r := instantPolicies(attempts, repairs)
	return New(client, zap.NewNop()).WithPolicies(a, r)
}

var testSig = &signals.Signals{CategoryGuess: signals.Guess{Value: "sofa", Confidence: 0.9}}

// --- Tests ---

func TestRerank_HappyPath(t *testing.T) {
	client := &mockClient{completeReplies: []string{
		`{"ranked_ids":["p2","p0","p1"],"match_bands":{"p2":"HIGH"}}`,
	}}
	svc := newTestService(client, 3, 2)

	w := settings.Default().Weights
	result, err := svc.Rerank(context.Background(), testSig, testCandidates(3), "modern", &w, "req1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"p2", "p0", "p1"}
	for i := range want {
		if result.RankedIDs[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, result.RankedIDs)
		}
	}
	if client.lastPayload.SchemaVersion != domrerank.SchemaVersion {
		t.Errorf("expected schema version %d, got %d",
			domrerank.SchemaVersion, client.lastPayload.SchemaVersion)
	}
	if client.lastPayload.Weights == nil {
		t.Error("expected weights in payload")
	}
	if len(client.lastPayload.Candidates) != 3 {
		t.Errorf("expected 3 candidates in payload, got %d", len(client.lastPayload.Candidates))
	}
}

func TestRerank_ZeroCandidatesNoCall(t *testing.T) {
	client := &mockClient{}
	svc := newTestService(client, 3, 2)

	result, err := svc.Rerank(context.Background(), testSig, nil, "", nil, "req1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.RankedIDs) != 0 {
		t.Errorf("expected empty result, got %v", result.RankedIDs)
	}
	if client.completeCalls != 0 {
		t.Errorf("expected no model calls, got %d", client.completeCalls)
	}
}

func TestRerank_MalformedThenRepaired(t *testing.T) {
	client := &mockClient{
		completeReplies: []string{"the best match is p1"},
		repairReplies:   []string{`{"ranked_ids":["p1","p0"]}`},
	}
	svc := newTestService(client, 3, 2)

	result, err := svc.Rerank(context.Background(), testSig, testCandidates(2), "", nil, "req1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RankedIDs[0] != "p1" {
		t.Errorf("expected repaired ranking, got %v", result.RankedIDs)
	}
	if client.completeCalls != 1 {
		t.Errorf("expected 1 complete call, got %d", client.completeCalls)
	}
	if client.repairCalls != 1 {
		t.Errorf("expected 1 repair call, got %d", client.repairCalls)
	}
}

func TestRerank_RepairExhaustionCountsAsFailedAttempt(t *testing.T) {
	// Every reply malformed: 2 outer attempts, each with 2 repair calls.
	client := &mockClient{
		completeReplies: []string{"garbage", "garbage"},
		repairReplies:   []string{"garbage", "garbage", "garbage", "garbage"},
	}
	svc := newTestService(client, 2, 2)

	_, err := svc.Rerank(context.Background(), testSig, testCandidates(2), "", nil, "req1")
	if !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error on exhaustion, got %v", err)
	}
	if client.completeCalls != 2 {
		t.Errorf("expected 2 complete calls, got %d", client.completeCalls)
	}
	if client.repairCalls != 4 {
		t.Errorf("expected 4 repair calls, got %d", client.repairCalls)
	}
}

func TestRerank_AuthErrorAbortsImmediately(t *testing.T) {
	authErr := domain.NewProviderError("openai", 401, domain.ErrProviderAuth, "bad key")
	client := &mockClient{completeErrs: []error{authErr}}
	svc := newTestService(client, 3, 2)

	_, err := svc.Rerank(context.Background(), testSig, testCandidates(2), "", nil, "req1")
	if !errors.Is(err, domain.ErrProviderAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if errors.Is(err, domain.ErrInternal) {
		t.Error("auth error must not be wrapped as internal")
	}
	if client.completeCalls != 1 {
		t.Errorf("expected 1 call, got %d", client.completeCalls)
	}
}

func TestRerank_TransientErrorRetried(t *testing.T) {
	transient := domain.NewProviderError("openai", 429, domain.ErrProviderRateLimit, "slow down")
	client := &mockClient{
		completeErrs:    []error{transient, nil},
		completeReplies: []string{"", `{"ranked_ids":["p0","p1"]}`},
	}
	svc := newTestService(client, 3, 2)

	result, err := svc.Rerank(context.Background(), testSig, testCandidates(2), "", nil, "req1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.RankedIDs) != 2 {
		t.Errorf("expected 2 ids, got %v", result.RankedIDs)
	}
	if client.completeCalls != 2 {
		t.Errorf("expected 2 calls, got %d", client.completeCalls)
	}
}

func TestRerank_ResultAlwaysPermutation(t *testing.T) {
	// Model hallucinates and omits; result must still cover the input set.
	client := &mockClient{completeReplies: []string{
		`{"ranked_ids":["ghost","p1","p1"]}`,
	}}
	svc := newTestService(client, 3, 2)

	candidates := testCandidates(3)
	result, err := svc.Rerank(context.Background(), testSig, candidates, "", nil, "req1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]bool{}
	for _, id := range result.RankedIDs {
		seen[id] = true
	}
	if len(result.RankedIDs) != len(candidates) || len(seen) != len(candidates) {
		t.Fatalf("not a permutation: %v", result.RankedIDs)
	}
	for i := range candidates {
		if !seen[candidates[i].ID()] {
			t.Errorf("missing id %s in %v", candidates[i].ID(), result.RankedIDs)
		}
	}
}
