package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/storecraft/backend/internal/history"
	historyhttp "github.com/storecraft/backend/internal/history/delivery/http"
	"github.com/storecraft/backend/internal/httpapi"
	"github.com/storecraft/backend/internal/recommend"
	"github.com/storecraft/backend/internal/recommend/usecase/query"
	"github.com/storecraft/backend/pkg/logger"
)

// RecommendHandler handles HTTP requests for product recommendations
type RecommendHandler struct {
	boughtTogetherHandler *query.GetBoughtTogetherHandler
	relatedHandler        *query.GetRelatedHandler
	popularHandler        *query.GetPopularHandler
	personalizedHandler   *query.GetPersonalizedHandler

	historyStore *history.Store

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewRecommendHandler creates a new recommendation handler
func NewRecommendHandler(engine *recommend.Engine, historyStore *history.Store) *RecommendHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_service_requests_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_service_request_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &RecommendHandler{
		boughtTogetherHandler: query.NewGetBoughtTogetherHandler(engine),
		relatedHandler:        query.NewGetRelatedHandler(engine),
		popularHandler:        query.NewGetPopularHandler(engine),
		personalizedHandler:   query.NewGetPersonalizedHandler(engine),
		historyStore:          historyStore,
		requestCounter:        requestCounter,
		requestLatency:        requestLatency,
	}
}

// RegisterRoutes registers recommendation routes
func (h *RecommendHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/recommendations/products/{id}/bought-together", h.BoughtTogether).Methods("GET")
	router.HandleFunc("/api/recommendations/products/{id}/related", h.Related).Methods("GET")
	router.HandleFunc("/api/recommendations/popular", h.Popular).Methods("GET")
	router.HandleFunc("/api/recommendations/personalized", h.Personalized).Methods("GET")
}

// BoughtTogether handles GET /api/recommendations/products/{id}/bought-together
func (h *RecommendHandler) BoughtTogether(w http.ResponseWriter, r *http.Request) {
	h.serveProductListing(w, r, "bought_together", func(productID uint, limit int) (interface{}, error) {
		return h.boughtTogetherHandler.Handle(r.Context(), query.GetBoughtTogetherQuery{
			ProductID: productID,
			Limit:     limit,
		})
	})
}

// Related handles GET /api/recommendations/products/{id}/related
func (h *RecommendHandler) Related(w http.ResponseWriter, r *http.Request) {
	h.serveProductListing(w, r, "related", func(productID uint, limit int) (interface{}, error) {
		return h.relatedHandler.Handle(r.Context(), query.GetRelatedQuery{
			ProductID: productID,
			Limit:     limit,
		})
	})
}

func (h *RecommendHandler) serveProductListing(w http.ResponseWriter, r *http.Request, endpoint string, run func(productID uint, limit int) (interface{}, error)) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	vars := mux.Vars(r)
	id, err := strconv.ParseUint(vars["id"], 10, 32)
	if err != nil {
		h.requestCounter.WithLabelValues(endpoint, "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := run(uint(id), limit)
	if err != nil {
		h.requestCounter.WithLabelValues(endpoint, "error").Inc()
		logger.Error(r.Context()).Err(err).Uint64("product_id", id).Msg("Recommendation lookup failed")
		httpapi.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	h.requestCounter.WithLabelValues(endpoint, "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: products})
}

// Popular handles GET /api/recommendations/popular
func (h *RecommendHandler) Popular(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("popular").Observe(time.Since(start).Seconds())
	}()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	products, err := h.popularHandler.Handle(r.Context(), query.GetPopularQuery{Limit: limit})
	if err != nil {
		h.requestCounter.WithLabelValues("popular", "error").Inc()
		logger.Error(r.Context()).Err(err).Msg("Popular products lookup failed")
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to load popular products")
		return
	}

	h.requestCounter.WithLabelValues("popular", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: products})
}

// Personalized handles GET /api/recommendations/personalized. Anonymous
// callers fall back to the popular listing.
func (h *RecommendHandler) Personalized(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("personalized").Observe(time.Since(start).Seconds())
	}()

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	userID := httpapi.UserIDFromContext(r.Context())

	var viewed []uint
	if h.historyStore != nil {
		sessionID := historyhttp.SessionID(w, r)
		if ring, err := h.historyStore.Get(r.Context(), sessionID); err == nil {
			viewed = ring.Recent(0)
		} else {
			logger.Warn(r.Context()).Err(err).Msg("Failed to load view history, continuing without it")
		}
	}

	products, err := h.personalizedHandler.Handle(r.Context(), query.GetPersonalizedQuery{
		UserID:           userID,
		ViewedProductIDs: viewed,
		Limit:            limit,
	})
	if err != nil {
		h.requestCounter.WithLabelValues("personalized", "error").Inc()
		logger.Error(r.Context()).Err(err).Uint("user_id", userID).Msg("Personalized recommendations failed")
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to load recommendations")
		return
	}

	h.requestCounter.WithLabelValues("personalized", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: products})
}
