package domain

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrOrderNotFound = errors.New("order not found")

// Order statuses
const (
	StatusPending       = "pending"
	StatusPaid          = "paid"
	StatusPaymentFailed = "payment_failed"
	StatusRefunded      = "refunded"
)

// Order represents a customer order
type Order struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	OrderNumber string         `json:"order_number" gorm:"uniqueIndex;not null"`
	UserID      uint           `json:"user_id" gorm:"not null;index"`
	Status      string         `json:"status" gorm:"default:'pending'"`
	Total       float64        `json:"total" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Items []OrderItem `json:"items,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is a single line of an order. Rows are immutable once
// written; the recommendation and search paths only ever read them.
type OrderItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	OrderID   uint      `json:"order_id" gorm:"not null;index"`
	ProductID uint      `json:"product_id" gorm:"not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	UnitPrice float64   `json:"unit_price" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// OrderRepository defines the contract for order data access
type OrderRepository interface {
	FindByID(id uint) (*Order, error)
	FindByOrderNumber(orderNumber string) (*Order, error)
	UpdateStatus(id uint, status string) error
	ItemsByOrderID(orderID uint) ([]OrderItem, error)

	// OrderIDsContainingProduct returns IDs of every order holding the product.
	OrderIDsContainingProduct(productID uint) ([]uint, error)
	// CoPurchasedProductIDs returns product IDs from the given orders,
	// excluding the seed product, with one entry per line item.
	CoPurchasedProductIDs(orderIDs []uint, excludeProductID uint) ([]uint, error)
	// PurchasedProductIDs returns the distinct products a user has ordered.
	PurchasedProductIDs(userID uint) ([]uint, error)
}
