package command

import (
	"fmt"
	"strings"

	"github.com/storecraft/backend/internal/wishlist/domain"
)

// CreateWishlistCommand creates a new named list for a user.
type CreateWishlistCommand struct {
	UserID    uint
	Name      string
	IsDefault bool
	IsPublic  bool
}

type CreateWishlistHandler struct {
	wishlists domain.WishlistRepository
}

func NewCreateWishlistHandler(wishlists domain.WishlistRepository) *CreateWishlistHandler {
	return &CreateWishlistHandler{wishlists: wishlists}
}

// Handle creates the wishlist. Marking it default clears the flag from
// the user's other lists first.
func (h *CreateWishlistHandler) Handle(cmd CreateWishlistCommand) (*domain.Wishlist, error) {
	if cmd.UserID == 0 {
		return nil, fmt.Errorf("user_id is required")
	}

	name := strings.TrimSpace(cmd.Name)
	if name == "" {
		name = "Default Wishlist"
	}

	if cmd.IsDefault {
		if err := h.wishlists.ClearDefault(cmd.UserID); err != nil {
			return nil, fmt.Errorf("failed to clear default flag: %w", err)
		}
	}

	wishlist := &domain.Wishlist{
		UserID:    cmd.UserID,
		Name:      name,
		IsDefault: cmd.IsDefault,
		IsPublic:  cmd.IsPublic,
	}
	if err := h.wishlists.Create(wishlist); err != nil {
		return nil, err
	}
	return wishlist, nil
}

// DeleteWishlistCommand removes a list with its items and shares.
type DeleteWishlistCommand struct {
	WishlistID uint
	UserID     uint
}

type DeleteWishlistHandler struct {
	wishlists domain.WishlistRepository
}

func NewDeleteWishlistHandler(wishlists domain.WishlistRepository) *DeleteWishlistHandler {
	return &DeleteWishlistHandler{wishlists: wishlists}
}

func (h *DeleteWishlistHandler) Handle(cmd DeleteWishlistCommand) error {
	wishlist, err := h.wishlists.FindByID(cmd.WishlistID)
	if err != nil {
		return err
	}
	if wishlist.UserID != cmd.UserID {
		return domain.ErrNotOwner
	}
	return h.wishlists.Delete(wishlist.ID)
}
