package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/storecraft/backend/internal/wishlist/domain"
)

// ShareWishlistCommand mints a share link for a wishlist. Password and
// TTL are optional.
type ShareWishlistCommand struct {
	WishlistID uint
	UserID     uint
	Password   string
	TTL        time.Duration
}

type ShareWishlistHandler struct {
	wishlists domain.WishlistRepository
}

func NewShareWishlistHandler(wishlists domain.WishlistRepository) *ShareWishlistHandler {
	return &ShareWishlistHandler{wishlists: wishlists}
}

func (h *ShareWishlistHandler) Handle(cmd ShareWishlistCommand) (*domain.WishlistShare, error) {
	wishlist, err := h.wishlists.FindByID(cmd.WishlistID)
	if err != nil {
		return nil, err
	}
	if wishlist.UserID != cmd.UserID {
		return nil, domain.ErrNotOwner
	}

	share := &domain.WishlistShare{
		WishlistID: wishlist.ID,
		Token:      strings.ReplaceAll(uuid.NewString(), "-", ""),
	}

	if cmd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash share password: %w", err)
		}
		share.PasswordHash = string(hash)
	}

	if cmd.TTL > 0 {
		expires := time.Now().Add(cmd.TTL)
		share.ExpiresAt = &expires
	}

	if err := h.wishlists.CreateShare(share); err != nil {
		return nil, err
	}
	return share, nil
}
