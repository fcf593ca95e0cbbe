// Package chi exposes the catalog over HTTP using the chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fieldline/equipcat/internal/domain"
	"github.com/fieldline/equipcat/internal/domain/query"
	"github.com/fieldline/equipcat/internal/domain/similarity"
	logpkg "github.com/fieldline/equipcat/internal/logger"
	"github.com/fieldline/equipcat/internal/metrics"
	cataloguc "github.com/fieldline/equipcat/internal/usecase/catalog"
	healthuc "github.com/fieldline/equipcat/internal/usecase/health"
	readinessuc "github.com/fieldline/equipcat/internal/usecase/readiness"
	similaruc "github.com/fieldline/equipcat/internal/usecase/similar"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API server.
type Server struct {
	catalog       *cataloguc.Service
	similar       *similaruc.Service
	readiness     *readinessuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	catalog *cataloguc.Service,
	similar *similaruc.Service,
	readiness *readinessuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog:   catalog,
		similar:   similar,
		readiness: readiness,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		sentinelHandler(domain.ErrModelNotFound, http.StatusNotFound, CodeModelNotFound),
		sentinelHandler(domain.ErrManufacturerNotFound, http.StatusNotFound, CodeManufacturerNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeModelNotFound),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeInvalidQuery),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrConfiguration, http.StatusBadRequest, CodeValidationFailed),
	}
	return s
}

// Routes mounts every API route on the router.
func (s *Server) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/models", func(r chi.Router) {
			r.Get("/", s.ListModels)
			r.Post("/", s.CreateModel)
			r.Post("/query", s.QueryModels)
			r.Get("/summary", s.CatalogSummary)
			r.Route("/{id}", func(r chi.Router) {
				r.Put("/", s.UpsertModel)
				r.Get("/", s.GetModel)
				r.Delete("/", s.DeleteModel)
				r.Get("/similar", s.SimilarModels)
			})
		})
		r.Route("/manufacturers", func(r chi.Router) {
			r.Get("/", s.ListManufacturers)
			r.Route("/{name}", func(r chi.Router) {
				r.Put("/", s.UpsertManufacturer)
				r.Get("/", s.GetManufacturer)
				r.Delete("/", s.DeleteManufacturer)
			})
		})
		r.Post("/readiness", s.RunReadiness)
		r.Get("/readiness", s.LastReadiness)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// UpsertModel handles PUT /api/v1/models/{id}.
func (s *Server) UpsertModel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, created, err := s.catalog.Upsert(r.Context(), attributesFromRequest(id, req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/v1/models/"+m.ID())
	}
	writeJSON(w, status, modelToResponse(&m))
}

// CreateModel handles POST /api/v1/models. The server assigns the ID.
func (s *Server) CreateModel(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, _, err := s.catalog.Upsert(r.Context(), attributesFromRequest("", req))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/models/"+m.ID())
	writeJSON(w, http.StatusCreated, modelToResponse(&m))
}

// GetModel handles GET /api/v1/models/{id}.
func (s *Server) GetModel(w http.ResponseWriter, r *http.Request) {
	m, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, modelToResponse(&m))
}

// DeleteModel handles DELETE /api/v1/models/{id}.
func (s *Server) DeleteModel(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListModels handles GET /api/v1/models.
func (s *Server) ListModels(w http.ResponseWriter, r *http.Request) {
	var cursor string
	var limit int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "cursor", q, &cursor); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid cursor parameter")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid limit parameter")
		return
	}

	start := time.Now()
	models, nextCursor, err := s.catalog.List(r.Context(), cursor, limit)
	if err != nil {
		metrics.CatalogQueriesTotal.WithLabelValues("list", "error").Inc()
		s.handleDomainError(w, r, err)
		return
	}
	metrics.CatalogQueriesTotal.WithLabelValues("list", "ok").Inc()
	metrics.CatalogQueryDuration.WithLabelValues("list").Observe(time.Since(start).Seconds())

	items := make([]ModelResponse, len(models))
	for i := range models {
		items[i] = modelToResponse(&models[i])
	}

	resp := ModelCursorListResponse{
		Items:   items,
		HasMore: nextCursor != "",
	}
	if nextCursor != "" {
		resp.NextCursor = &nextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

// QueryModels handles POST /api/v1/models/query.
func (s *Server) QueryModels(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	expr, err := expressionFromDTO(req.Filters)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	start := time.Now()
	models, err := s.catalog.Query(r.Context(), expr)
	if err != nil {
		metrics.CatalogQueriesTotal.WithLabelValues("query", "error").Inc()
		s.handleDomainError(w, r, err)
		return
	}
	metrics.CatalogQueriesTotal.WithLabelValues("query", "ok").Inc()
	metrics.CatalogQueryDuration.WithLabelValues("query").Observe(time.Since(start).Seconds())

	items := make([]ModelResponse, len(models))
	for i := range models {
		items[i] = modelToResponse(&models[i])
	}
	writeJSON(w, http.StatusOK, QueryResponse{Items: items, Total: len(items)})
}

// SimilarModels handles GET /api/v1/models/{id}/similar.
func (s *Server) SimilarModels(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var topK, limit int
	var minScore float64
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "top_k", q, &topK); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid top_k parameter")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid limit parameter")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "min_score", q, &minScore); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid min_score parameter")
		return
	}

	// Optional candidate pre-filter by category.
	var category string
	if err := runtime.BindQueryParameter("form", true, false, "category", q, &category); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid category parameter")
		return
	}
	filters, err := expressionForCategory(category)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	req, err := similarity.NewRequest(filters, topK, limit, minScore)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	matches, err := s.similar.Find(r.Context(), id, req)
	if err != nil {
		metrics.SimilarityRankingsTotal.WithLabelValues("error").Inc()
		s.handleDomainError(w, r, err)
		return
	}
	metrics.SimilarityRankingsTotal.WithLabelValues("ok").Inc()
	metrics.SimilarityMatchesReturned.Observe(float64(len(matches)))
	writeJSON(w, http.StatusOK, matchesToResponse(id, matches))
}

// CatalogSummary handles GET /api/v1/models/summary.
func (s *Server) CatalogSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.catalog.Summary(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SummaryResponse{
		TotalModels:        sum.TotalModels,
		TotalManufacturers: sum.TotalManufacturers,
		ByCategory:         sum.ByCategory,
		ByManufacturer:     sum.ByManufacturer,
		AvgRatedPowerHP:    sum.AvgRatedPowerHP,
		AvgMSRPBaseUSD:     sum.AvgMSRPBaseUSD,
	})
}

// UpsertManufacturer handles PUT /api/v1/manufacturers/{name}.
func (s *Server) UpsertManufacturer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req ManufacturerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	m, created, err := s.catalog.UpsertManufacturer(
		r.Context(), name, req.Country, req.FoundedYear, req.Headquarters, req.Website,
	)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, manufacturerToResponse(&m))
}

// GetManufacturer handles GET /api/v1/manufacturers/{name}.
func (s *Server) GetManufacturer(w http.ResponseWriter, r *http.Request) {
	m, err := s.catalog.GetManufacturer(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, manufacturerToResponse(&m))
}

// ListManufacturers handles GET /api/v1/manufacturers.
func (s *Server) ListManufacturers(w http.ResponseWriter, r *http.Request) {
	mfrs, err := s.catalog.ListManufacturers(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	items := make([]ManufacturerResponse, len(mfrs))
	for i := range mfrs {
		items[i] = manufacturerToResponse(&mfrs[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// DeleteManufacturer handles DELETE /api/v1/manufacturers/{name}.
func (s *Server) DeleteManufacturer(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.DeleteManufacturer(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RunReadiness handles POST /api/v1/readiness. 200 when ready, 503 otherwise.
func (s *Server) RunReadiness(w http.ResponseWriter, r *http.Request) {
	report, err := s.readiness.Run(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if !report.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, readinessToResponse(report))
}

// LastReadiness handles GET /api/v1/readiness. Returns the most recently
// persisted report, or 404 when no run has been recorded yet.
func (s *Server) LastReadiness(w http.ResponseWriter, r *http.Request) {
	report, err := s.readiness.Last(r.Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeReportNotFound, "no readiness report recorded yet")
			return
		}
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readinessToResponse(report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
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

func expressionForCategory(category string) (query.Expression, error) {
	if category == "" {
		return query.Expression{}, nil
	}
	cond, err := query.NewMatch("category", category)
	if err != nil {
		return query.Expression{}, err
	}
	return query.NewExpression([]query.Condition{cond}, nil, nil)
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

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors carry record and field names, which the client needs.
func safeDomainMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	var ce *domain.ConfigurationError
	if errors.As(err, &ce) {
		return ce.Error()
	}

	sentinels := []error{
		domain.ErrModelNotFound,
		domain.ErrManufacturerNotFound,
		domain.ErrNotFound,
		domain.ErrInvalidQuery,
		domain.ErrValidation,
		domain.ErrConfiguration,
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

// validationHandler surfaces the offending record and field for validation errors.
func validationHandler(w http.ResponseWriter, err error, msg string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"code":      CodeValidationFailed,
		"message":   msg,
		"record_id": ve.RecordID,
		"field":     ve.Field,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	// Request-scoped logger carries request_id when the middleware set one.
	log := logpkg.FromContextOr(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
