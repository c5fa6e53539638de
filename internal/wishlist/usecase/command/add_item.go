package command

import (
	"fmt"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	"github.com/storecraft/backend/internal/wishlist/domain"
)

// AddItemCommand saves a product into a wishlist.
type AddItemCommand struct {
	WishlistID uint
	UserID     uint
	ProductID  uint
	Note       string
	Priority   int
}

type AddItemHandler struct {
	wishlists domain.WishlistRepository
	catalog   catalogdomain.CatalogRepository
}

func NewAddItemHandler(wishlists domain.WishlistRepository, catalog catalogdomain.CatalogRepository) *AddItemHandler {
	return &AddItemHandler{wishlists: wishlists, catalog: catalog}
}

func (h *AddItemHandler) Handle(cmd AddItemCommand) (*domain.WishlistItem, error) {
	if cmd.Priority < domain.PriorityNormal || cmd.Priority > domain.PriorityHighest {
		return nil, fmt.Errorf("priority must be between %d and %d", domain.PriorityNormal, domain.PriorityHighest)
	}

	wishlist, err := h.wishlists.FindByID(cmd.WishlistID)
	if err != nil {
		return nil, err
	}
	if wishlist.UserID != cmd.UserID {
		return nil, domain.ErrNotOwner
	}

	if _, err := h.catalog.FindProductByID(cmd.ProductID); err != nil {
		return nil, err
	}

	item := &domain.WishlistItem{
		WishlistID: wishlist.ID,
		ProductID:  cmd.ProductID,
		Note:       cmd.Note,
		Priority:   cmd.Priority,
	}
	if err := h.wishlists.AddItem(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItemCommand drops a product from a wishlist.
type RemoveItemCommand struct {
	WishlistID uint
	UserID     uint
	ProductID  uint
}

type RemoveItemHandler struct {
	wishlists domain.WishlistRepository
}

func NewRemoveItemHandler(wishlists domain.WishlistRepository) *RemoveItemHandler {
	return &RemoveItemHandler{wishlists: wishlists}
}

func (h *RemoveItemHandler) Handle(cmd RemoveItemCommand) error {
	wishlist, err := h.wishlists.FindByID(cmd.WishlistID)
	if err != nil {
		return err
	}
	if wishlist.UserID != cmd.UserID {
		return domain.ErrNotOwner
	}
	return h.wishlists.RemoveItem(wishlist.ID, cmd.ProductID)
}

// UpdateItemCommand changes the note or priority of a saved item.
type UpdateItemCommand struct {
	WishlistID uint
	UserID     uint
	ProductID  uint
	Note       string
	Priority   int
}

type UpdateItemHandler struct {
	wishlists domain.WishlistRepository
}

func NewUpdateItemHandler(wishlists domain.WishlistRepository) *UpdateItemHandler {
	return &UpdateItemHandler{wishlists: wishlists}
}

func (h *UpdateItemHandler) Handle(cmd UpdateItemCommand) (*domain.WishlistItem, error) {
	if cmd.Priority < domain.PriorityNormal || cmd.Priority > domain.PriorityHighest {
		return nil, fmt.Errorf("priority must be between %d and %d", domain.PriorityNormal, domain.PriorityHighest)
	}

	wishlist, err := h.wishlists.FindByID(cmd.WishlistID)
	if err != nil {
		return nil, err
	}
	if wishlist.UserID != cmd.UserID {
		return nil, domain.ErrNotOwner
	}

	item, err := h.wishlists.FindItem(wishlist.ID, cmd.ProductID)
	if err != nil {
		return nil, err
	}

	item.Note = cmd.Note
	item.Priority = cmd.Priority
	if err := h.wishlists.UpdateItem(item); err != nil {
		return nil, err
	}
	return item, nil
}
