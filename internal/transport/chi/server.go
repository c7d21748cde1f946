// Package chi implements the HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rolodex-hq/rolodex/internal/db"
	"github.com/rolodex-hq/rolodex/internal/domain"
	"github.com/rolodex-hq/rolodex/internal/domain/savedsearch"
	"github.com/rolodex-hq/rolodex/internal/domain/search/filter"
	"github.com/rolodex-hq/rolodex/internal/domain/search/query"
	healthuc "github.com/rolodex-hq/rolodex/internal/usecase/health"
	itemuc "github.com/rolodex-hq/rolodex/internal/usecase/item"
	searchuc "github.com/rolodex-hq/rolodex/internal/usecase/search"
	savedsearchuc "github.com/rolodex-hq/rolodex/internal/usecase/savedsearch"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the catalog over HTTP.
type Server struct {
	items         *itemuc.Service
	search        *searchuc.Service
	searches      *savedsearchuc.Service
	health        *healthuc.Service
	limits        query.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	items *itemuc.Service,
	search *searchuc.Service,
	searches *savedsearchuc.Service,
	health *healthuc.Service,
	limits query.Limits,
	logger *zap.Logger,
) *Server {
	s := &Server{
		items:    items,
		search:   search,
		searches: searches,
		health:   health,
		limits:   limits,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrItemNotFound, http.StatusNotFound, codeItemNotFound),
		sentinelHandler(domain.ErrSearchNotFound, http.StatusNotFound, codeSearchNotFound),
		sentinelHandler(domain.ErrInvalidItem, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrInvalidCursor, http.StatusBadRequest, codeInvalidCursor),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, codeRateLimited),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable, codeStorageError),
	}
	return s
}

// Mount registers all routes on the given router.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Route("/items", func(r chi.Router) {
			r.Post("/", s.CreateItem)
			r.Get("/", s.ListItems)
			r.Route("/{itemID}", func(r chi.Router) {
				r.Get("/", s.GetItem)
				r.Patch("/", s.UpdateItem)
				r.Delete("/", s.DeleteItem)
			})
		})
		r.Route("/searches", func(r chi.Router) {
			r.Post("/", s.CreateSearch)
			r.Get("/", s.ListSearches)
			r.Route("/{searchID}", func(r chi.Router) {
				r.Get("/", s.GetSearch)
				r.Delete("/", s.DeleteSearch)
			})
		})
	})
}

// CreateItem handles POST /api/items.
func (s *Server) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	it, err := s.items.Create(r.Context(), ownerFromContext(r.Context()), req.toFields())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, itemToResponse(&it))
}

// ListItems handles GET /api/items. With a q parameter this is a search;
// without one it is a plain browse of the owner's catalog.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request) {
	q, err := s.queryFromRequest(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// GetItem handles GET /api/items/{itemID}.
func (s *Server) GetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.items.Get(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "itemID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemToResponse(&it))
}

// UpdateItem handles PATCH /api/items/{itemID}.
func (s *Server) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	patch := req.toPatch()
	it, err := s.items.Update(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "itemID"), &patch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, itemToResponse(&it))
}

// DeleteItem handles DELETE /api/items/{itemID}.
func (s *Server) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.items.Delete(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "itemID")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateSearch handles POST /api/searches.
func (s *Server) CreateSearch(w http.ResponseWriter, r *http.Request) {
	var req createSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	search, err := s.searches.Create(r.Context(), ownerFromContext(r.Context()), req.Name, savedsearch.Config{
		Query:     req.Query,
		Category:  req.Category,
		Vendor:    req.Vendor,
		ColourHex: req.ColourHex,
		PriceMax:  req.PriceMax,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, savedSearchToResponse(&search))
}

// ListSearches handles GET /api/searches.
func (s *Server) ListSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.searches.List(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]savedSearchResponse, len(searches))
	for i := range searches {
		items[i] = savedSearchToResponse(&searches[i])
	}

	writeJSON(w, http.StatusOK, listSearchesResponse{Items: items})
}

// GetSearch handles GET /api/searches/{searchID}.
func (s *Server) GetSearch(w http.ResponseWriter, r *http.Request) {
	search, err := s.searches.Get(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "searchID"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, savedSearchToResponse(&search))
}

// DeleteSearch handles DELETE /api/searches/{searchID}.
func (s *Server) DeleteSearch(w http.ResponseWriter, r *http.Request) {
	if err := s.searches.Delete(r.Context(), ownerFromContext(r.Context()), chi.URLParam(r, "searchID")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	overall := "healthy"
	if !status.Healthy {
		httpStatus = http.StatusServiceUnavailable
		overall = "unhealthy"
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: overall,
		Checks: map[string]string{
			"storage":  status.Storage,
			"embedder": status.Embedder,
		},
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// queryFromRequest builds a validated search query from URL parameters.
func (s *Server) queryFromRequest(r *http.Request) (*query.Query, error) {
	params := r.URL.Query()

	var priceMax *float64
	if raw := params.Get("price_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("price_max must be a number: %w", domain.ErrInvalidFilter)
		}
		priceMax = &v
	}

	f, err := filter.New(params.Get("category"), params.Get("vendor"), params.Get("colour_hex"), priceMax)
	if err != nil {
		return nil, err
	}

	limit := 0
	if raw := params.Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("limit must be an integer: %w", domain.ErrInvalidQuery)
		}
		limit = v
	}

	// semantic=false forces the keyword path.
	forceKeyword := params.Get("semantic") == "false"

	q, err := query.New(
		params.Get("q"),
		ownerFromContext(r.Context()),
		f,
		limit,
		params.Get("cursor"),
		forceKeyword,
		s.limits,
	)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrItemNotFound,
		domain.ErrSearchNotFound,
		domain.ErrInvalidItem,
		domain.ErrInvalidQuery,
		domain.ErrInvalidFilter,
		domain.ErrInvalidCursor,
		domain.ErrDimensionMismatch,
		domain.ErrRateLimited,
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
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
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

	// Storage failures surface as 503 so clients can retry.
	var dbErr *db.Error
	if errors.As(err, &dbErr) {
		writeError(w, http.StatusServiceUnavailable, codeStorageError, domain.ErrStorageUnavailable.Error())
		return
	}

	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
