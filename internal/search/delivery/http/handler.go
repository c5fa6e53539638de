package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/storecraft/backend/internal/httpapi"
	"github.com/storecraft/backend/internal/search"
	"github.com/storecraft/backend/internal/search/usecase/query"
	"github.com/storecraft/backend/pkg/logger"
)

// SearchHandler handles HTTP requests for product search
type SearchHandler struct {
	searchHandler *query.SearchProductsHandler
	facetsHandler *query.GetFacetsHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(engine *search.Engine) *SearchHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_service_requests_total",
			Help: "Total number of search requests",
		},
		[]string{"endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "search_service_request_duration_seconds",
			Help:    "Duration of search requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &SearchHandler{
		searchHandler:  query.NewSearchProductsHandler(engine),
		facetsHandler:  query.NewGetFacetsHandler(engine),
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

// RegisterRoutes registers search routes
func (h *SearchHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/search", h.Search).Methods("GET")
	router.HandleFunc("/api/search/facets", h.Facets).Methods("GET")
}

// Search handles GET /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("search").Observe(time.Since(start).Seconds())
	}()

	filters := parseFilters(r)

	products, err := h.searchHandler.Handle(r.Context(), query.SearchProductsQuery{Filters: filters})
	if err != nil {
		h.requestCounter.WithLabelValues("search", "error").Inc()
		logger.Error(r.Context()).Err(err).Str("query", filters.Query).Msg("Search failed")
		httpapi.RespondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	h.requestCounter.WithLabelValues("search", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Data: map[string]interface{}{
			"products": products,
			"count":    len(products),
		},
	})
}

// Facets handles GET /api/search/facets
func (h *SearchHandler) Facets(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("facets").Observe(time.Since(start).Seconds())
	}()

	filters := parseFilters(r)

	facets, err := h.facetsHandler.Handle(r.Context(), query.GetFacetsQuery{Filters: filters})
	if err != nil {
		h.requestCounter.WithLabelValues("facets", "error").Inc()
		logger.Error(r.Context()).Err(err).Msg("Facet aggregation failed")
		httpapi.RespondError(w, http.StatusInternalServerError, "Facet aggregation failed")
		return
	}

	h.requestCounter.WithLabelValues("facets", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: facets})
}

func parseFilters(r *http.Request) search.Filters {
	q := r.URL.Query()

	filters := search.Filters{
		Query:  q.Get("q"),
		SortBy: q.Get("sort_by"),
	}

	if v, err := strconv.ParseFloat(q.Get("price_min"), 64); err == nil {
		filters.PriceMin = &v
	}
	if v, err := strconv.ParseFloat(q.Get("price_max"), 64); err == nil {
		filters.PriceMax = &v
	}
	filters.CategoryIDs = parseIDList(q.Get("categories"))
	filters.BrandIDs = parseIDList(q.Get("brands"))

	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		filters.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		filters.Offset = v
	}

	return filters
}

func parseIDList(raw string) []uint {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uint, 0, len(parts))
	for _, p := range parts {
		if id, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32); err == nil {
			ids = append(ids, uint(id))
		}
	}
	return ids
}
