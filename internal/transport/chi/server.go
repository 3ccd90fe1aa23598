// Package chi exposes the search core over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/maplebid/tendex/internal/domain"
	"github.com/maplebid/tendex/internal/domain/search/request"
	healthuc "github.com/maplebid/tendex/internal/usecase/health"
	ingestuc "github.com/maplebid/tendex/internal/usecase/ingest"
	searchuc "github.com/maplebid/tendex/internal/usecase/search"
)

// Error codes surfaced in error payloads.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeNotFound           = "not_found"
	codeVectorDimMismatch  = "vector_dim_mismatch"
	codeEmbeddingProvider  = "embedding_provider_error"
	codeStorageUnavailable = "storage_unavailable"
	codeInternalError      = "internal_error"
)

const defaultSuggestLimit = 10

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server is the HTTP API for search, suggestions and tender ingestion.
type Server struct {
	search        *searchuc.Service
	ingest        *ingestuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	ingest *ingestuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search: search,
		ingest: ingest,
		health: health,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, codeVectorDimMismatch),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingProvider),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable, codeStorageUnavailable),
	}
	return s
}

// Mount registers all API routes on the router.
func (s *Server) Mount(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.SearchTenders)
		r.Get("/search/suggestions", s.SearchSuggestions)
		r.Get("/search/examples", s.SearchExamples)
		r.Get("/search/statistics", s.SearchStatistics)

		r.Put("/tenders/{id}", s.UpsertTender)
		r.Get("/tenders/{id}", s.GetTender)
		r.Delete("/tenders/{id}", s.DeleteTender)
	})
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// SearchTenders handles POST /api/v1/search.
func (s *Server) SearchTenders(w http.ResponseWriter, r *http.Request) {
	var dto searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Unparseable value/date filters are dropped with a warning, never a
	// failure: same policy as query parse degradation.
	var warnings []string
	addWarning := func(msg string) {
		if msg != "" {
			warnings = append(warnings, msg)
		}
	}
	minValue, warn := parseMoneyValue(dto.MinValue, "min_value")
	addWarning(warn)
	maxValue, warn := parseMoneyValue(dto.MaxValue, "max_value")
	addWarning(warn)
	deadlineBefore, warn := parseDateValue(dto.DeadlineBefore, "deadline_before")
	addWarning(warn)
	deadlineAfter, warn := parseDateValue(dto.DeadlineAfter, "deadline_after")
	addWarning(warn)

	req, err := request.New(
		dto.Query, dto.Province, dto.Naics,
		minValue, maxValue,
		deadlineBefore, deadlineAfter,
		dto.UseAdvanced, dto.UseAISearch,
		dto.Limit, dto.Offset,
		request.SortBy(dto.SortBy), request.SortOrder(dto.SortOrder),
	)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp.Info.Warnings = append(resp.Info.Warnings, warnings...)

	writeJSON(w, http.StatusOK, searchResponseToDTO(&resp))
}

// SearchSuggestions handles GET /api/v1/search/suggestions.
func (s *Server) SearchSuggestions(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	limit := formatLimit(atoiDefault(r.URL.Query().Get("limit"), defaultSuggestLimit),
		defaultSuggestLimit, request.MaxLimit)

	suggestions := s.search.Suggest(prefix, limit)

	out := suggestionsResponseDTO{Suggestions: make([]suggestionDTO, len(suggestions))}
	for i, sg := range suggestions {
		out.Suggestions[i] = suggestionDTO{Term: sg.Term, Frequency: sg.Frequency}
	}
	writeJSON(w, http.StatusOK, out)
}

// SearchExamples handles GET /api/v1/search/examples: a static catalog of
// query syntax, used by clients to render search help.
func (s *Server) SearchExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]exampleDTO{"examples": {
		{Query: "flooring", Description: "Plain keyword search", Advanced: false},
		{Query: `"snow removal"`, Description: "Exact phrase", Advanced: true},
		{Query: "paving AND ontario", Description: "Both terms required", Advanced: true},
		{Query: "roofing OR cladding", Description: "Either term", Advanced: true},
		{Query: "security NOT software", Description: "Exclude a term", Advanced: true},
		{Query: "constr*", Description: "Prefix wildcard", Advanced: true},
		{Query: `buyer:"Department of National Defence"`, Description: "Filter by buying organization", Advanced: true},
		{Query: "category:Construction province:ON", Description: "Field filters combine with AND", Advanced: true},
		{Query: "(bridge OR culvert) AND naics:237", Description: "Grouping with parentheses", Advanced: true},
	}})
}

// SearchStatistics handles GET /api/v1/search/statistics.
func (s *Server) SearchStatistics(w http.ResponseWriter, r *http.Request) {
	stats := s.search.Stats()
	writeJSON(w, http.StatusOK, statisticsResponseDTO{
		Documents:    stats.Documents,
		Terms:        stats.Terms,
		AvgDocTokens: stats.AvgDocTokens,
	})
}

// UpsertTender handles PUT /api/v1/tenders/{id}.
func (s *Server) UpsertTender(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto tenderUpsertDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	doc := dto.toDomain(id)
	created, err := s.ingest.Upsert(r.Context(), doc)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/v1/tenders/"+id)
	}
	writeJSON(w, status, tenderToDTO(&doc))
}

// GetTender handles GET /api/v1/tenders/{id}.
func (s *Server) GetTender(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ingest.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tenderToDTO(&doc))
}

// DeleteTender handles DELETE /api/v1/tenders/{id}.
func (s *Server) DeleteTender(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":     report.Status,
		"checks":     report.Checks,
		"index_size": report.IndexSize,
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

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":    code,
		"message": message,
	})
}

// safeDomainMessage returns a sentinel error message for the client
// without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrInvalidInput,
		domain.ErrEmbeddingProviderError,
		domain.ErrStorageUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
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
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
