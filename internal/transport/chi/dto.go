package chi

import (
	"github.com/kailas-cloud/snapfind/internal/domain/catalog"
	"github.com/kailas-cloud/snapfind/internal/domain/search/scored"
	domtel "github.com/kailas-cloud/snapfind/internal/domain/telemetry"
	"github.com/kailas-cloud/snapfind/internal/usecase/search"
)

// ErrorCode identifies a machine-readable API error class.
type ErrorCode string

const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeProviderAuth     ErrorCode = "provider_auth_error"
	ErrorCodeProviderTimeout  ErrorCode = "provider_timeout"
	ErrorCodeRateLimited      ErrorCode = "rate_limited"
	ErrorCodeProviderError    ErrorCode = "provider_error"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchRequest is the POST /v1/search body. The image travels as
// base64 so the endpoint stays a plain JSON API.
type SearchRequest struct {
	ImageB64  string `json:"image_b64"`
	MimeType  string `json:"mime_type"`
	Prompt    string `json:"prompt,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// SearchResultItem is one ranked catalog product.
type SearchResultItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category,omitempty"`
	Type        string   `json:"type,omitempty"`
	Price       float64  `json:"price"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
	Description string   `json:"description,omitempty"`
	Score       float64  `json:"score"`
	MatchBand   string   `json:"match_band,omitempty"`
	Reasons     []string `json:"reasons,omitempty"`
}

// TimingsResponse reports per-stage latencies in milliseconds.
type TimingsResponse struct {
	ExtractMs  int64 `json:"extract_ms"`
	RetrieveMs int64 `json:"retrieve_ms"`
	ScoreMs    int64 `json:"score_ms"`
	RerankMs   int64 `json:"rerank_ms"`
	TotalMs    int64 `json:"total_ms"`
}

// SearchResponse is the POST /v1/search result.
type SearchResponse struct {
	RequestID string             `json:"request_id"`
	Prompt    string             `json:"prompt,omitempty"`
	Signals   any                `json:"signals"`
	Results   []SearchResultItem `json:"results"`
	Timings   TimingsResponse    `json:"timings"`
	Notices   []string           `json:"notices,omitempty"`
}

// ProductUpsertRequest is the PUT /v1/products/{id} body.
type ProductUpsertRequest struct {
	Title       string   `json:"title"`
	Category    string   `json:"category,omitempty"`
	Type        string   `json:"type,omitempty"`
	Price       float64  `json:"price"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
	Description string   `json:"description,omitempty"`
}

// ProductResponse is the GET /v1/products/{id} body.
type ProductResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category,omitempty"`
	Type        string   `json:"type,omitempty"`
	Price       float64  `json:"price"`
	Width       *float64 `json:"width,omitempty"`
	Height      *float64 `json:"height,omitempty"`
	Depth       *float64 `json:"depth,omitempty"`
	Description string   `json:"description,omitempty"`
}

// FeedbackRequest attaches operator votes to a past search.
type FeedbackRequest struct {
	Items map[string]string `json:"items"`
	Notes string            `json:"notes,omitempty"`
}

// TelemetryEventResponse is one recorded pipeline execution.
type TelemetryEventResponse struct {
	RequestID string           `json:"request_id"`
	Timestamp string           `json:"timestamp"`
	Plan      string           `json:"plan,omitempty"`
	Timings   TimingsResponse  `json:"timings"`
	Counts    map[string]int   `json:"counts"`
	Fallbacks map[string]bool  `json:"fallbacks"`
	Error     string           `json:"error,omitempty"`
	Feedback  *FeedbackRequest `json:"feedback,omitempty"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func productToResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID(),
		Title:       p.Title(),
		Category:    p.Category(),
		Type:        p.Type(),
		Price:       p.Price(),
		Width:       p.Width(),
		Height:      p.Height(),
		Depth:       p.Depth(),
		Description: p.Description(),
	}
}

func productFromUpsert(id string, req ProductUpsertRequest) catalog.Product {
	return catalog.New(
		id, req.Title, req.Category, req.Type, req.Price,
		req.Width, req.Height, req.Depth, req.Description,
	)
}

func resultToItem(c *scored.Candidate, reasons map[string][]string) SearchResultItem {
	p := c.Product()
	item := SearchResultItem{
		ID:          p.ID(),
		Title:       p.Title(),
		Category:    p.Category(),
		Type:        p.Type(),
		Price:       p.Price(),
		Width:       p.Width(),
		Height:      p.Height(),
		Depth:       p.Depth(),
		Description: p.Description(),
		Score:       c.Score(),
		MatchBand:   string(c.Band()),
	}
	if rs, ok := reasons[p.ID()]; ok {
		item.Reasons = rs
	}
	return item
}

func timingsToResponse(t domtel.Timings) TimingsResponse {
	return TimingsResponse{
		ExtractMs:  t.Extract.Milliseconds(),
		RetrieveMs: t.Retrieve.Milliseconds(),
		ScoreMs:    t.Score.Milliseconds(),
		RerankMs:   t.Rerank.Milliseconds(),
		TotalMs:    t.Total.Milliseconds(),
	}
}

func searchToResponse(resp *search.Response) SearchResponse {
	items := make([]SearchResultItem, len(resp.Results))
	for i := range resp.Results {
		items[i] = resultToItem(&resp.Results[i], resp.Reasons)
	}

	notices := make([]string, 0, len(resp.Notices))
	for _, n := range resp.Notices {
		notices = append(notices, string(n))
	}

	return SearchResponse{
		RequestID: resp.RequestID,
		Prompt:    resp.Prompt,
		Signals:   resp.Signals,
		Results:   items,
		Timings:   timingsToResponse(resp.Timings),
		Notices:   notices,
	}
}

func eventToResponse(ev *domtel.Event) TelemetryEventResponse {
	out := TelemetryEventResponse{
		RequestID: ev.RequestID,
		Timestamp: ev.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Plan:      string(ev.Plan),
		Timings:   timingsToResponse(ev.Timings),
		Counts: map[string]int{
			"retrieved": ev.Counts.Retrieved,
			"reranked":  ev.Counts.Reranked,
			"returned":  ev.Counts.Returned,
		},
		Fallbacks: map[string]bool{
			"vision":          ev.Fallbacks.Vision,
			"rerank":          ev.Fallbacks.Rerank,
			"broad_retrieval": ev.Fallbacks.BroadRetrieval,
		},
		Error: ev.Error,
	}
	if ev.Feedback != nil {
		items := make(map[string]string, len(ev.Feedback.Items))
		for id, vote := range ev.Feedback.Items {
			items[id] = string(vote)
		}
		out.Feedback = &FeedbackRequest{Items: items, Notes: ev.Feedback.Notes}
	}
	return out
}

func feedbackFromRequest(req FeedbackRequest) (domtel.Feedback, bool) {
	items := make(map[string]domtel.Vote, len(req.Items))
	for id, raw := range req.Items {
		vote := domtel.Vote(raw)
		if vote != domtel.ThumbsUp && vote != domtel.ThumbsDown {
			return domtel.Feedback{}, false
		}
		items[id] = vote
	}
	return domtel.Feedback{Items: items, Notes: req.Notes}, true
}
