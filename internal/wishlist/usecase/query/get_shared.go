package query

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/storecraft/backend/internal/wishlist/domain"
)

// GetSharedQuery resolves a share token into a read-only wishlist view.
type GetSharedQuery struct {
	Token    string
	Password string
}

type GetSharedHandler struct {
	wishlists domain.WishlistRepository
}

func NewGetSharedHandler(wishlists domain.WishlistRepository) *GetSharedHandler {
	return &GetSharedHandler{wishlists: wishlists}
}

// Handle validates expiry and password before exposing the list.
func (h *GetSharedHandler) Handle(q GetSharedQuery) (*domain.Wishlist, error) {
	share, err := h.wishlists.FindShareByToken(q.Token)
	if err != nil {
		return nil, err
	}

	if share.IsExpired(time.Now()) {
		return nil, domain.ErrShareExpired
	}

	if share.IsProtected() {
		if q.Password == "" {
			return nil, domain.ErrPasswordRequired
		}
		if bcrypt.CompareHashAndPassword([]byte(share.PasswordHash), []byte(q.Password)) != nil {
			return nil, domain.ErrPasswordIncorrect
		}
	}

	return h.wishlists.FindByID(share.WishlistID)
}
