package chi

import (
	"testing"
	"time"

	domtel "github.com/kailas-cloud/snapfind/internal/domain/telemetry"
)

func TestFeedbackFromRequest_ValidVotes(t *testing.T) {
	fb, ok := feedbackFromRequest(FeedbackRequest{
		Items: map[string]string{"p1": "thumbs_up", "p2": "thumbs_down"},
		Notes: "close but wrong color",
	})
	if !ok {
		t.Fatal("expected valid feedback to be accepted")
	}
	if fb.Items["p1"] != domtel.ThumbsUp {
		t.Errorf("p1 vote: got %s, want %s", fb.Items["p1"], domtel.ThumbsUp)
	}
	if fb.Items["p2"] != domtel.ThumbsDown {
		t.Errorf("p2 vote: got %s, want %s", fb.Items["p2"], domtel.ThumbsDown)
	}
	if fb.Notes != "close but wrong color" {
		t.Errorf("notes: got %q", fb.Notes)
	}
}

func TestFeedbackFromRequest_UnknownVote(t *testing.T) {
	_, ok := feedbackFromRequest(FeedbackRequest{
		Items: map[string]string{"p1": "meh"},
	})
	if ok {
		t.Fatal("expected unknown vote to be rejected")
	}
}

func TestFeedbackFromRequest_EmptyItems(t *testing.T) {
	fb, ok := feedbackFromRequest(FeedbackRequest{Notes: "no votes"})
	if !ok {
		t.Fatal("expected empty items to be accepted")
	}
	if len(fb.Items) != 0 {
		t.Errorf("items: got %d, want 0", len(fb.Items))
	}
}

func TestProductUpsertRoundTrip(t *testing.T) {
	width := 120.0
	req := ProductUpsertRequest{
		Title:       "Velvet Sofa",
		Category:    "sofa",
		Type:        "loveseat",
		Price:       499.99,
		Width:       &width,
		Description: "Two-seat velvet sofa",
	}

	p := productFromUpsert("p1", req)
	resp := productToResponse(&p)

	if resp.ID != "p1" {
		t.Errorf("id: got %q, want %q", resp.ID, "p1")
	}
	if resp.Title != req.Title || resp.Category != req.Category || resp.Type != req.Type {
		t.Errorf("fields not preserved: %+v", resp)
	}
	if resp.Price != req.Price {
		t.Errorf("price: got %v, want %v", resp.Price, req.Price)
	}
	if resp.Width == nil || *resp.Width != width {
		t.Errorf("width: got %v, want %v", resp.Width, width)
	}
	if resp.Height != nil || resp.Depth != nil {
		t.Errorf("expected unset dimensions to stay nil, got %+v", resp)
	}
}

func TestTimingsToResponse(t *testing.T) {
	got := timingsToResponse(domtel.Timings{
		Extract:  1500 * time.Millisecond,
		Retrieve: 40 * time.Millisecond,
		Score:    2 * time.Millisecond,
		Rerank:   900 * time.Millisecond,
		Total:    2442 * time.Millisecond,
	})

	want := TimingsResponse{ExtractMs: 1500, RetrieveMs: 40, ScoreMs: 2, RerankMs: 900, TotalMs: 2442}
	if got != want {
		t.Errorf("timings: got %+v, want %+v", got, want)
	}
}
