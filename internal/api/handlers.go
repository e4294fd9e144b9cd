package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lei/datagov-gateway/internal/models"
	"github.com/lei/datagov-gateway/internal/service"
	"github.com/lei/datagov-gateway/pkg/datagov"
)

// Handlers contains HTTP handler functions
type Handlers struct {
	service *service.Service
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc *service.Service) *Handlers {
	return &Handlers{service: svc}
}

// Health handles health check requests
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListResources handles GET /v1/resources
func (h *Handlers) ListResources(w http.ResponseWriter, r *http.Request) {
	resources := FilterResources(h.service.ListResources(r.Context()), r.URL.Query().Get("search"))

	respondJSON(w, http.StatusOK, map[string]any{
		"resources": resources,
	})
}

// QueryResource handles GET /v1/resources/{resource}/records
func (h *Handlers) QueryResource(w http.ResponseWriter, r *http.Request) {
	logger := GetLogger(r.Context())
	resourceID := chi.URLParam(r, "resource")

	q := r.URL.Query()
	from, to, err := parseDateRange(q.Get("date_from"), q.Get("date_to"))
	if err != nil {
		if logger != nil {
			logger.Warn("invalid date range", "resource", resourceID, "error", err)
		}
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Query(r.Context(), resourceID, from, to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	if logger != nil {
		logger.Debug("resource queried", "resource", resourceID, "count", result.Count())
	}

	respondJSON(w, http.StatusOK, newQueryResult(result, from, to))
}

// QueryMany handles GET /v1/records?resource=a&resource=b
func (h *Handlers) QueryMany(w http.ResponseWriter, r *http.Request) {
	logger := GetLogger(r.Context())

	q := r.URL.Query()
	from, to, err := parseDateRange(q.Get("date_from"), q.Get("date_to"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resourceIDs := q["resource"]
	if len(resourceIDs) == 0 {
		respondError(w, r, http.StatusBadRequest, "at least one resource parameter is required")
		return
	}

	results, err := h.service.QueryMany(r.Context(), resourceIDs, from, to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	envelopes := make([]models.QueryResult, 0, len(results))
	for _, result := range results {
		envelopes = append(envelopes, newQueryResult(result, from, to))
	}
	sort.Slice(envelopes, func(i, j int) bool {
		return envelopes[i].Resource < envelopes[j].Resource
	})

	if logger != nil {
		logger.Debug("resources queried", "count", len(envelopes))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"results": envelopes,
	})
}

func newQueryResult(result datagov.Result, from, to time.Time) models.QueryResult {
	return models.QueryResult{
		Resource: result.Resource(),
		DateFrom: from.Format(datagov.DateLayout),
		DateTo:   to.Format(datagov.DateLayout),
		Count:    result.Count(),
		Records:  result,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondError writes a JSON error response with logging
func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	logger := GetLogger(r.Context())
	requestID := GetRequestID(r.Context())

	if logger != nil {
		logger.Error("returning error response",
			"status", status,
			"message", message,
			"request_id", requestID)
	}

	w.Header().Set("X-Request-ID", requestID)
	respondJSON(w, status, map[string]any{
		"error": map[string]any{
			"message":    message,
			"code":       status,
			"request_id": requestID,
		},
	})
}

// handleServiceError maps service and upstream errors to HTTP responses
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := GetLogger(r.Context())

	if logger != nil {
		logger.Error("service error occurred",
			"error", err.Error(),
			"error_type", fmt.Sprintf("%T", err),
			"kind", datagov.KindOf(err).String())
	}

	var badRequest *datagov.BadRequestError
	var transformErr *datagov.TransformError

	switch {
	case errors.Is(err, service.ErrResourceNotExposed), errors.Is(err, datagov.ErrUnknownResource):
		respondError(w, r, http.StatusNotFound, "resource not found")
	case errors.Is(err, service.ErrInvalidRange):
		respondError(w, r, http.StatusBadRequest, service.ErrInvalidRange.Error())
	case errors.Is(err, service.ErrNoResources):
		respondError(w, r, http.StatusBadRequest, service.ErrNoResources.Error())
	case errors.Is(err, datagov.ErrUnauthorized):
		// the client's own key was accepted; the proxy's upstream token was not
		respondError(w, r, http.StatusBadGateway, "upstream authorization failed")
	case errors.As(err, &badRequest):
		respondError(w, r, http.StatusBadGateway,
			fmt.Sprintf("upstream rejected the query (status %d): %s", badRequest.StatusCode, badRequest.Body))
	case errors.As(err, &transformErr):
		respondError(w, r, http.StatusBadGateway, "upstream returned malformed records: "+transformErr.Error())
	case errors.Is(err, datagov.ErrTransport):
		respondError(w, r, http.StatusBadGateway, "upstream unavailable")
	default:
		respondError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
