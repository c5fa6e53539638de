package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	catalog "github.com/storecraft/backend/internal/catalog/domain"
	"github.com/storecraft/backend/internal/history"
	"github.com/storecraft/backend/internal/httpapi"
	"github.com/storecraft/backend/pkg/logger"
)

const sessionCookie = "storefront_session"

// HistoryHandler records and serves per-session recently viewed products
type HistoryHandler struct {
	store   *history.Store
	catalog catalog.CatalogRepository
}

func NewHistoryHandler(store *history.Store, catalogRepo catalog.CatalogRepository) *HistoryHandler {
	return &HistoryHandler{store: store, catalog: catalogRepo}
}

// RegisterRoutes registers history routes
func (h *HistoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/history/views", h.RecordView).Methods("POST")
	router.HandleFunc("/api/history/views", h.ListRecentlyViewed).Methods("GET")
	router.HandleFunc("/api/products/{id:[0-9]+}", h.GetProduct).Methods("GET")
}

// SessionID returns the caller's session ID, minting a cookie if absent.
func SessionID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// GetProduct handles GET /api/products/{id}. Serving a product detail
// also records the view against the caller's session.
func (h *HistoryHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid product ID")
		return
	}

	product, err := h.catalog.FindProductByID(uint(id))
	if err != nil {
		httpapi.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	sessionID := SessionID(w, r)
	if _, err := h.store.Touch(r.Context(), sessionID, product.ID); err != nil {
		logger.Warn(r.Context()).Err(err).Uint("product_id", product.ID).Msg("Failed to record product view")
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Data:    map[string]interface{}{"product": product},
	})
}

// RecordView handles POST /api/history/views
func (h *HistoryHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == 0 {
		httpapi.RespondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	if _, err := h.catalog.FindProductByID(req.ProductID); err != nil {
		httpapi.RespondError(w, http.StatusNotFound, "Product not found")
		return
	}

	sessionID := SessionID(w, r)
	ring, err := h.store.Touch(r.Context(), sessionID, req.ProductID)
	if err != nil {
		logger.Error(r.Context()).Err(err).Uint("product_id", req.ProductID).Msg("Failed to record product view")
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to record view")
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Data:    map[string]interface{}{"viewed_count": ring.Len()},
	})
}

// ListRecentlyViewed handles GET /api/history/views
func (h *HistoryHandler) ListRecentlyViewed(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 6
	}

	sessionID := SessionID(w, r)
	ring, err := h.store.Get(r.Context(), sessionID)
	if err != nil {
		logger.Error(r.Context()).Err(err).Msg("Failed to load viewed-products log")
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to load history")
		return
	}

	recent := ring.Recent(limit)
	products, err := h.catalog.FindActiveProductsByIDs(recent)
	if err != nil {
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	// Preserve recency order; products deleted since viewing are skipped.
	byID := make(map[uint]catalog.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]catalog.Product, 0, len(recent))
	for _, id := range recent {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}

	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Data:    map[string]interface{}{"products": ordered},
	})
}
