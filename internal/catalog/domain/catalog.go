package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
)

// Product represents a sellable catalog entry
type Product struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Name             string         `json:"name" gorm:"not null;index"`
	ShortDescription string         `json:"short_description"`
	Description      string         `json:"description"`
	SKU              string         `json:"sku" gorm:"uniqueIndex"`
	Price            float64        `json:"price" gorm:"not null"`
	Stock            int            `json:"stock" gorm:"not null;default:0"`
	Featured         bool           `json:"featured" gorm:"default:false"`
	IsActive         bool           `json:"is_active" gorm:"default:true"`
	CategoryID       uint           `json:"category_id" gorm:"index"`
	Category         *Category      `json:"category,omitempty"`
	BrandID          uint           `json:"brand_id" gorm:"index"`
	Brand            *Brand         `json:"brand,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Product) TableName() string {
	return "products"
}

// IsAvailable checks if the product can be sold
func (p *Product) IsAvailable() bool {
	return p.Stock > 0 && p.IsActive
}

// Category is a tree node; ParentID is nil for roots
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex"`
	ParentID  *uint     `json:"parent_id" gorm:"index"`
	Parent    *Category `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

func (Category) TableName() string {
	return "categories"
}

// Brand groups products by manufacturer
type Brand struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex"`
	CreatedAt time.Time `json:"created_at"`
}

func (Brand) TableName() string {
	return "brands"
}

// Review is a customer rating for a product
type Review struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Rating    int       `json:"rating" gorm:"not null"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

// CatalogRepository defines the contract for catalog data access
type CatalogRepository interface {
	FindProductByID(id uint) (*Product, error)
	FindActiveProductsByIDs(ids []uint) ([]Product, error)
	FindCategoryByID(id uint) (*Category, error)
	// SubtreeIDs expands category IDs to the set including all descendants.
	SubtreeIDs(ids []uint) ([]uint, error)
	DecrementStock(productID uint, quantity int) error
	AverageRating(productID uint) (float64, error)
}
