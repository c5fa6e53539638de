package repository

import (
	"errors"
	"strings"

	"github.com/storecraft/backend/internal/wishlist/domain"
	"gorm.io/gorm"
)

type GormWishlistRepository struct {
	db *gorm.DB
}

func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

func (r *GormWishlistRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Wishlist{}, &domain.WishlistItem{}, &domain.WishlistShare{})
}

func (r *GormWishlistRepository) Create(wishlist *domain.Wishlist) error {
	err := r.db.Create(wishlist).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateName
	}
	return err
}

func (r *GormWishlistRepository) FindByID(id uint) (*domain.Wishlist, error) {
	var wishlist domain.Wishlist
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("priority DESC, created_at ASC")
	}).Preload("Items.Product").First(&wishlist, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrWishlistNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wishlist, nil
}

func (r *GormWishlistRepository) FindByUser(userID uint) ([]domain.Wishlist, error) {
	var wishlists []domain.Wishlist
	err := r.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&wishlists).Error
	return wishlists, err
}

func (r *GormWishlistRepository) Update(wishlist *domain.Wishlist) error {
	err := r.db.Save(wishlist).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateName
	}
	return err
}

func (r *GormWishlistRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("wishlist_id = ?", id).Delete(&domain.WishlistItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("wishlist_id = ?", id).Delete(&domain.WishlistShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Wishlist{}, id).Error
	})
}

// ClearDefault drops the default flag from every list of the user.
func (r *GormWishlistRepository) ClearDefault(userID uint) error {
	return r.db.Model(&domain.Wishlist{}).
		Where("user_id = ? AND is_default", userID).
		Update("is_default", false).Error
}

func (r *GormWishlistRepository) AddItem(item *domain.WishlistItem) error {
	err := r.db.Create(item).Error
	if isUniqueViolation(err) {
		return domain.ErrDuplicateItem
	}
	return err
}

func (r *GormWishlistRepository) FindItem(wishlistID, productID uint) (*domain.WishlistItem, error) {
	var item domain.WishlistItem
	err := r.db.Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormWishlistRepository) UpdateItem(item *domain.WishlistItem) error {
	return r.db.Save(item).Error
}

func (r *GormWishlistRepository) RemoveItem(wishlistID, productID uint) error {
	result := r.db.Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&domain.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *GormWishlistRepository) ItemsByWishlist(wishlistID uint) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem
	err := r.db.Where("wishlist_id = ?", wishlistID).
		Preload("Product").
		Order("priority DESC, created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *GormWishlistRepository) CreateShare(share *domain.WishlistShare) error {
	return r.db.Create(share).Error
}

func (r *GormWishlistRepository) FindShareByToken(token string) (*domain.WishlistShare, error) {
	var share domain.WishlistShare
	err := r.db.Where("token = ?", token).First(&share).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrShareNotFound
	}
	if err != nil {
		return nil, err
	}
	return &share, nil
}

func (r *GormWishlistRepository) DeleteShare(id uint) error {
	return r.db.Delete(&domain.WishlistShare{}, id).Error
}

// isUniqueViolation detects duplicate-key errors across the postgres
// and sqlite drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
