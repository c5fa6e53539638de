package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	"github.com/storecraft/backend/internal/httpapi"
	"github.com/storecraft/backend/internal/wishlist/domain"
	"github.com/storecraft/backend/internal/wishlist/usecase/command"
	"github.com/storecraft/backend/internal/wishlist/usecase/query"
	"github.com/storecraft/backend/pkg/logger"
)

// WishlistHandler handles HTTP requests for wishlists
type WishlistHandler struct {
	createWishlist *command.CreateWishlistHandler
	deleteWishlist *command.DeleteWishlistHandler
	addItem        *command.AddItemHandler
	updateItem     *command.UpdateItemHandler
	removeItem     *command.RemoveItemHandler
	shareWishlist  *command.ShareWishlistHandler
	getWishlist    *query.GetWishlistHandler
	listWishlists  *query.ListWishlistsHandler
	getShared      *query.GetSharedHandler

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// NewWishlistHandler creates a new wishlist handler
func NewWishlistHandler(wishlists domain.WishlistRepository, catalog catalogdomain.CatalogRepository) *WishlistHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wishlist_service_requests_total",
			Help: "Total number of wishlist requests",
		},
		[]string{"endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wishlist_service_request_duration_seconds",
			Help:    "Duration of wishlist requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)

	return &WishlistHandler{
		createWishlist: command.NewCreateWishlistHandler(wishlists),
		deleteWishlist: command.NewDeleteWishlistHandler(wishlists),
		addItem:        command.NewAddItemHandler(wishlists, catalog),
		updateItem:     command.NewUpdateItemHandler(wishlists),
		removeItem:     command.NewRemoveItemHandler(wishlists),
		shareWishlist:  command.NewShareWishlistHandler(wishlists),
		getWishlist:    query.NewGetWishlistHandler(wishlists),
		listWishlists:  query.NewListWishlistsHandler(wishlists),
		getShared:      query.NewGetSharedHandler(wishlists),
		requestCounter: requestCounter,
		requestLatency: requestLatency,
	}
}

// RegisterRoutes registers wishlist routes. The shared view is public;
// everything else must be mounted behind auth by the caller.
func (h *WishlistHandler) RegisterRoutes(public, authed *mux.Router) {
	public.HandleFunc("/api/wishlists/shared/{token}", h.GetShared).Methods("GET")

	authed.HandleFunc("/api/wishlists", h.Create).Methods("POST")
	authed.HandleFunc("/api/wishlists", h.List).Methods("GET")
	authed.HandleFunc("/api/wishlists/{id:[0-9]+}", h.Get).Methods("GET")
	authed.HandleFunc("/api/wishlists/{id:[0-9]+}", h.Delete).Methods("DELETE")
	authed.HandleFunc("/api/wishlists/{id:[0-9]+}/items", h.AddItem).Methods("POST")
	authed.HandleFunc("/api/wishlists/{id:[0-9]+}/items/{productID:[0-9]+}", h.UpdateItem).Methods("PUT")
	authed.HandleFunc("/api/wishlists/{id:[0-9]+}/items/{productID:[0-9]+}", h.RemoveItem).Methods("DELETE")
	authed.HandleFunc("/api/wishlists/{id:[0-9]+}/shares", h.Share).Methods("POST")
}

// Create handles POST /api/wishlists
func (h *WishlistHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("create").Observe(time.Since(start).Seconds())
	}()

	var body struct {
		Name      string `json:"name"`
		IsDefault bool   `json:"is_default"`
		IsPublic  bool   `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.requestCounter.WithLabelValues("create", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wishlist, err := h.createWishlist.Handle(command.CreateWishlistCommand{
		UserID:    httpapi.UserIDFromContext(r.Context()),
		Name:      body.Name,
		IsDefault: body.IsDefault,
		IsPublic:  body.IsPublic,
	})
	if err != nil {
		h.requestCounter.WithLabelValues("create", "error").Inc()
		if errors.Is(err, domain.ErrDuplicateName) {
			httpapi.RespondError(w, http.StatusConflict, "Wishlist name already in use")
			return
		}
		logger.Error(r.Context()).Err(err).Msg("Failed to create wishlist")
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to create wishlist")
		return
	}

	h.requestCounter.WithLabelValues("create", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusCreated, httpapi.Response{Success: true, Data: wishlist})
}

// List handles GET /api/wishlists
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("list").Observe(time.Since(start).Seconds())
	}()

	wishlists, err := h.listWishlists.Handle(query.ListWishlistsQuery{
		UserID: httpapi.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("list", "error").Inc()
		logger.Error(r.Context()).Err(err).Msg("Failed to list wishlists")
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to list wishlists")
		return
	}

	h.requestCounter.WithLabelValues("list", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: wishlists})
}

// Get handles GET /api/wishlists/{id}
func (h *WishlistHandler) Get(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("get").Observe(time.Since(start).Seconds())
	}()

	id, ok := pathUint(r, "id")
	if !ok {
		h.requestCounter.WithLabelValues("get", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid wishlist ID")
		return
	}

	wishlist, err := h.getWishlist.Handle(query.GetWishlistQuery{
		WishlistID: id,
		UserID:     httpapi.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("get", "error").Inc()
		h.respondError(w, r, err)
		return
	}

	h.requestCounter.WithLabelValues("get", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: wishlist})
}

// Delete handles DELETE /api/wishlists/{id}
func (h *WishlistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("delete").Observe(time.Since(start).Seconds())
	}()

	id, ok := pathUint(r, "id")
	if !ok {
		h.requestCounter.WithLabelValues("delete", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid wishlist ID")
		return
	}

	err := h.deleteWishlist.Handle(command.DeleteWishlistCommand{
		WishlistID: id,
		UserID:     httpapi.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("delete", "error").Inc()
		h.respondError(w, r, err)
		return
	}

	h.requestCounter.WithLabelValues("delete", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Message: "Wishlist deleted"})
}

// AddItem handles POST /api/wishlists/{id}/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("add_item").Observe(time.Since(start).Seconds())
	}()

	id, ok := pathUint(r, "id")
	if !ok {
		h.requestCounter.WithLabelValues("add_item", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid wishlist ID")
		return
	}

	var body struct {
		ProductID uint   `json:"product_id"`
		Note      string `json:"note"`
		Priority  int    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ProductID == 0 {
		h.requestCounter.WithLabelValues("add_item", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.addItem.Handle(command.AddItemCommand{
		WishlistID: id,
		UserID:     httpapi.UserIDFromContext(r.Context()),
		ProductID:  body.ProductID,
		Note:       body.Note,
		Priority:   body.Priority,
	})
	if err != nil {
		h.requestCounter.WithLabelValues("add_item", "error").Inc()
		switch {
		case errors.Is(err, domain.ErrDuplicateItem):
			httpapi.RespondError(w, http.StatusConflict, "Product already in wishlist")
		case errors.Is(err, catalogdomain.ErrProductNotFound):
			httpapi.RespondError(w, http.StatusNotFound, "Product not found")
		default:
			h.respondError(w, r, err)
		}
		return
	}

	h.requestCounter.WithLabelValues("add_item", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusCreated, httpapi.Response{Success: true, Data: item})
}

// UpdateItem handles PUT /api/wishlists/{id}/items/{productID}
func (h *WishlistHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("update_item").Observe(time.Since(start).Seconds())
	}()

	id, ok := pathUint(r, "id")
	productID, ok2 := pathUint(r, "productID")
	if !ok || !ok2 {
		h.requestCounter.WithLabelValues("update_item", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid path parameters")
		return
	}

	var body struct {
		Note     string `json:"note"`
		Priority int    `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.requestCounter.WithLabelValues("update_item", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := h.updateItem.Handle(command.UpdateItemCommand{
		WishlistID: id,
		UserID:     httpapi.UserIDFromContext(r.Context()),
		ProductID:  productID,
		Note:       body.Note,
		Priority:   body.Priority,
	})
	if err != nil {
		h.requestCounter.WithLabelValues("update_item", "error").Inc()
		h.respondError(w, r, err)
		return
	}

	h.requestCounter.WithLabelValues("update_item", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: item})
}

// RemoveItem handles DELETE /api/wishlists/{id}/items/{productID}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("remove_item").Observe(time.Since(start).Seconds())
	}()

	id, ok := pathUint(r, "id")
	productID, ok2 := pathUint(r, "productID")
	if !ok || !ok2 {
		h.requestCounter.WithLabelValues("remove_item", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid path parameters")
		return
	}

	err := h.removeItem.Handle(command.RemoveItemCommand{
		WishlistID: id,
		UserID:     httpapi.UserIDFromContext(r.Context()),
		ProductID:  productID,
	})
	if err != nil {
		h.requestCounter.WithLabelValues("remove_item", "error").Inc()
		h.respondError(w, r, err)
		return
	}

	h.requestCounter.WithLabelValues("remove_item", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Message: "Item removed"})
}

// Share handles POST /api/wishlists/{id}/shares
func (h *WishlistHandler) Share(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("share").Observe(time.Since(start).Seconds())
	}()

	id, ok := pathUint(r, "id")
	if !ok {
		h.requestCounter.WithLabelValues("share", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid wishlist ID")
		return
	}

	var body struct {
		Password  string `json:"password"`
		ExpiresIn string `json:"expires_in"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.requestCounter.WithLabelValues("share", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var ttl time.Duration
	if body.ExpiresIn != "" {
		parsed, err := time.ParseDuration(body.ExpiresIn)
		if err != nil || parsed < 0 {
			h.requestCounter.WithLabelValues("share", "error").Inc()
			httpapi.RespondError(w, http.StatusBadRequest, "Invalid expires_in duration")
			return
		}
		ttl = parsed
	}

	share, err := h.shareWishlist.Handle(command.ShareWishlistCommand{
		WishlistID: id,
		UserID:     httpapi.UserIDFromContext(r.Context()),
		Password:   body.Password,
		TTL:        ttl,
	})
	if err != nil {
		h.requestCounter.WithLabelValues("share", "error").Inc()
		h.respondError(w, r, err)
		return
	}

	h.requestCounter.WithLabelValues("share", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusCreated, httpapi.Response{Success: true, Data: share})
}

// GetShared handles GET /api/wishlists/shared/{token}
func (h *WishlistHandler) GetShared(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("get_shared").Observe(time.Since(start).Seconds())
	}()

	wishlist, err := h.getShared.Handle(query.GetSharedQuery{
		Token:    mux.Vars(r)["token"],
		Password: r.URL.Query().Get("password"),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("get_shared", "error").Inc()
		switch {
		case errors.Is(err, domain.ErrShareNotFound), errors.Is(err, domain.ErrShareExpired):
			// Expired links look identical to unknown ones.
			httpapi.RespondError(w, http.StatusNotFound, "Share link not found")
		case errors.Is(err, domain.ErrPasswordRequired), errors.Is(err, domain.ErrPasswordIncorrect):
			httpapi.RespondError(w, http.StatusUnauthorized, "Password required")
		default:
			logger.Error(r.Context()).Err(err).Msg("Failed to resolve share link")
			httpapi.RespondError(w, http.StatusInternalServerError, "Failed to resolve share link")
		}
		return
	}

	h.requestCounter.WithLabelValues("get_shared", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: wishlist})
}

func (h *WishlistHandler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrWishlistNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "Wishlist not found")
	case errors.Is(err, domain.ErrItemNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "Wishlist item not found")
	case errors.Is(err, domain.ErrNotOwner):
		httpapi.RespondError(w, http.StatusForbidden, "Wishlist does not belong to caller")
	default:
		logger.Error(r.Context()).Err(err).Msg("Wishlist request failed")
		httpapi.RespondError(w, http.StatusInternalServerError, "Wishlist request failed")
	}
}

func pathUint(r *http.Request, key string) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)[key], 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
