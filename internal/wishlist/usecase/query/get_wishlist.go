package query

import (
	"github.com/storecraft/backend/internal/wishlist/domain"
)

// GetWishlistQuery fetches one wishlist with its items.
type GetWishlistQuery struct {
	WishlistID uint
	UserID     uint
}

type GetWishlistHandler struct {
	wishlists domain.WishlistRepository
}

func NewGetWishlistHandler(wishlists domain.WishlistRepository) *GetWishlistHandler {
	return &GetWishlistHandler{wishlists: wishlists}
}

func (h *GetWishlistHandler) Handle(q GetWishlistQuery) (*domain.Wishlist, error) {
	wishlist, err := h.wishlists.FindByID(q.WishlistID)
	if err != nil {
		return nil, err
	}
	if wishlist.UserID != q.UserID && !wishlist.IsPublic {
		return nil, domain.ErrNotOwner
	}
	return wishlist, nil
}

// ListWishlistsQuery lists the caller's wishlists.
type ListWishlistsQuery struct {
	UserID uint
}

type ListWishlistsHandler struct {
	wishlists domain.WishlistRepository
}

func NewListWishlistsHandler(wishlists domain.WishlistRepository) *ListWishlistsHandler {
	return &ListWishlistsHandler{wishlists: wishlists}
}

func (h *ListWishlistsHandler) Handle(q ListWishlistsQuery) ([]domain.Wishlist, error) {
	return h.wishlists.FindByUser(q.UserID)
}
