package domain

import (
	"errors"
	"time"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
)

var (
	ErrWishlistNotFound  = errors.New("wishlist not found")
	ErrItemNotFound      = errors.New("wishlist item not found")
	ErrShareNotFound     = errors.New("share link not found")
	ErrDuplicateName     = errors.New("wishlist name already in use")
	ErrDuplicateItem     = errors.New("product already in wishlist")
	ErrNotOwner          = errors.New("wishlist does not belong to caller")
	ErrShareExpired      = errors.New("share link has expired")
	ErrPasswordRequired  = errors.New("share link requires a password")
	ErrPasswordIncorrect = errors.New("incorrect share password")
)

// Item priority levels.
const (
	PriorityNormal  = 0
	PriorityHigh    = 1
	PriorityHighest = 2
)

// Wishlist is a named collection of saved products. Names are unique
// per user; each user has at most one default list.
type Wishlist struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_wishlists_user_name"`
	Name      string         `json:"name" gorm:"size:100;not null;uniqueIndex:idx_wishlists_user_name"`
	IsDefault bool           `json:"is_default" gorm:"default:false"`
	IsPublic  bool           `json:"is_public" gorm:"default:false"`
	Items     []WishlistItem `json:"items,omitempty" gorm:"foreignKey:WishlistID"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}

// WishlistItem is one saved product. A product appears at most once
// per wishlist.
type WishlistItem struct {
	ID         uint                   `json:"id" gorm:"primaryKey"`
	WishlistID uint                   `json:"wishlist_id" gorm:"not null;uniqueIndex:idx_wishlist_items_product"`
	ProductID  uint                   `json:"product_id" gorm:"not null;uniqueIndex:idx_wishlist_items_product"`
	Product    *catalogdomain.Product `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Note       string                 `json:"note"`
	Priority   int                    `json:"priority" gorm:"default:0"`
	CreatedAt  time.Time              `json:"created_at"`
}

func (WishlistItem) TableName() string {
	return "wishlist_items"
}

// WishlistShare grants read access to a wishlist through an opaque
// token, optionally password protected and time limited.
type WishlistShare struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	WishlistID   uint       `json:"wishlist_id" gorm:"not null;index"`
	Token        string     `json:"token" gorm:"size:64;uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"size:128"`
	ExpiresAt    *time.Time `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

func (WishlistShare) TableName() string {
	return "wishlist_shares"
}

// IsProtected reports whether the share requires a password.
func (s *WishlistShare) IsProtected() bool {
	return s.PasswordHash != ""
}

// IsExpired reports whether the share link has lapsed.
func (s *WishlistShare) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// WishlistRepository defines the contract for wishlist data access
type WishlistRepository interface {
	Create(wishlist *Wishlist) error
	FindByID(id uint) (*Wishlist, error)
	FindByUser(userID uint) ([]Wishlist, error)
	Update(wishlist *Wishlist) error
	Delete(id uint) error
	ClearDefault(userID uint) error

	AddItem(item *WishlistItem) error
	FindItem(wishlistID, productID uint) (*WishlistItem, error)
	UpdateItem(item *WishlistItem) error
	RemoveItem(wishlistID, productID uint) error
	ItemsByWishlist(wishlistID uint) ([]WishlistItem, error)

	CreateShare(share *WishlistShare) error
	FindShareByToken(token string) (*WishlistShare, error)
	DeleteShare(id uint) error
}
