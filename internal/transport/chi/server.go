// Package chi exposes the HTTP API: image search, catalog product
// management, admin settings, telemetry, health, and metrics.
package chi

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	gochi "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/snapfind/internal/domain"
	cataloguc "github.com/kailas-cloud/snapfind/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/snapfind/internal/usecase/health"
	searchuc "github.com/kailas-cloud/snapfind/internal/usecase/search"
	settingsuc "github.com/kailas-cloud/snapfind/internal/usecase/settings"
	telemetryuc "github.com/kailas-cloud/snapfind/internal/usecase/telemetry"
)

// allowedMimeTypes are the image formats accepted by the search endpoint.
var allowedMimeTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecase services to HTTP handlers.
type Server struct {
	search        *searchuc.Service
	products      *cataloguc.Service
	settings      *settingsuc.Provider
	telemetry     *telemetryuc.Sink
	health        *healthuc.Service
	logger        *zap.Logger
	maxImageBytes int
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	products *cataloguc.Service,
	settings *settingsuc.Provider,
	telemetry *telemetryuc.Sink,
	health *healthuc.Service,
	maxImageBytes int,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:        search,
		products:      products,
		settings:      settings,
		telemetry:     telemetry,
		health:        health,
		logger:        logger,
		maxImageBytes: maxImageBytes,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrInvalidProduct, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrInvalidSettings, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrProviderAuth, http.StatusBadGateway, ErrorCodeProviderAuth),
		sentinelHandler(domain.ErrProviderTimeout, http.StatusGatewayTimeout, ErrorCodeProviderTimeout),
		sentinelHandler(domain.ErrProviderRateLimit, http.StatusTooManyRequests, ErrorCodeRateLimited),
		sentinelHandler(domain.ErrProviderContextTooLarge, http.StatusRequestEntityTooLarge, ErrorCodeProviderError),
		sentinelHandler(domain.ErrProviderInvalidResponse, http.StatusBadGateway, ErrorCodeProviderError),
		sentinelHandler(domain.ErrProviderNetwork, http.StatusBadGateway, ErrorCodeProviderError),
	}
	return s
}

// Routes registers all API routes on the given router.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/v1", func(r gochi.Router) {
		r.Post("/search", s.Search)

		r.Route("/products/{id}", func(r gochi.Router) {
			r.Put("/", s.UpsertProduct)
			r.Get("/", s.GetProduct)
			r.Delete("/", s.DeleteProduct)
		})

		r.Route("/admin/config", func(r gochi.Router) {
			r.Get("/", s.GetConfig)
			r.Put("/", s.UpdateConfig)
		})

		r.Route("/telemetry", func(r gochi.Router) {
			r.Get("/events", s.ListEvents)
			r.Post("/{requestId}/feedback", s.AddFeedback)
		})
	})
}

// Search handles POST /v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.ImageB64 == "" {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "image_b64 is required")
		return
	}
	if _, ok := allowedMimeTypes[req.MimeType]; !ok {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"mime_type must be image/jpeg, image/png, or image/webp")
		return
	}

	imageBytes, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "image_b64 is not valid base64")
		return
	}
	if len(imageBytes) == 0 {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "image is empty")
		return
	}
	if len(imageBytes) > s.maxImageBytes {
		writeError(w, http.StatusRequestEntityTooLarge, ErrorCodeValidationFailed, "image exceeds size limit")
		return
	}

	resp, err := s.search.Search(r.Context(), &searchuc.Request{
		ImageBytes: imageBytes,
		MimeType:   req.MimeType,
		Prompt:     req.Prompt,
		RequestID:  req.RequestID,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchToResponse(resp))
}

// UpsertProduct handles PUT /v1/products/{id}.
func (s *Server) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")

	var req ProductUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.products.Upsert(r.Context(), productFromUpsert(id, req)); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProduct handles GET /v1/products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")

	p, err := s.products.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, productToResponse(&p))
}

// DeleteProduct handles DELETE /v1/products/{id}.
func (s *Server) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := gochi.URLParam(r, "id")

	if err := s.products.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetConfig handles GET /v1/admin/config.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.settings.Get())
}

// UpdateConfig handles PUT /v1/admin/config. Omitted fields keep their
// current values; the validated result replaces the snapshot atomically.
func (s *Server) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	next := *s.settings.Get()

	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := s.settings.Update(next); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.settings.Get())
}

// ListEvents handles GET /v1/telemetry/events.
func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := s.telemetry.Events()

	items := make([]TelemetryEventResponse, len(events))
	for i := range events {
		items[i] = eventToResponse(&events[i])
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// AddFeedback handles POST /v1/telemetry/{requestId}/feedback.
func (s *Server) AddFeedback(w http.ResponseWriter, r *http.Request) {
	requestID := gochi.URLParam(r, "requestId")

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	fb, ok := feedbackFromRequest(req)
	if !ok {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"votes must be thumbs_up or thumbs_down")
		return
	}

	if !s.telemetry.AddFeedback(requestID, fb) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "no recorded event for request id")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string)
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrProductNotFound,
		domain.ErrInvalidProduct,
		domain.ErrInvalidSettings,
		domain.ErrProviderAuth,
		domain.ErrProviderTimeout,
		domain.ErrProviderRateLimit,
		domain.ErrProviderContextTooLarge,
		domain.ErrProviderInvalidResponse,
		domain.ErrProviderNetwork,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
