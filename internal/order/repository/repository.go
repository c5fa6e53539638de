package repository

import (
	"errors"

	"github.com/storecraft/backend/internal/order/domain"
	"gorm.io/gorm"
)

type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Order{}, &domain.OrderItem{})
}

func (r *GormOrderRepository) FindByID(id uint) (*domain.Order, error) {
	var order domain.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) FindByOrderNumber(orderNumber string) (*domain.Order, error) {
	var order domain.Order
	err := r.db.Preload("Items").Where("order_number = ?", orderNumber).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&domain.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (r *GormOrderRepository) ItemsByOrderID(orderID uint) ([]domain.OrderItem, error) {
	var items []domain.OrderItem
	err := r.db.Where("order_id = ?", orderID).Find(&items).Error
	return items, err
}

func (r *GormOrderRepository) OrderIDsContainingProduct(productID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&domain.OrderItem{}).
		Where("product_id = ?", productID).
		Distinct().
		Pluck("order_id", &ids).Error
	return ids, err
}

func (r *GormOrderRepository) CoPurchasedProductIDs(orderIDs []uint, excludeProductID uint) ([]uint, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var ids []uint
	err := r.db.Model(&domain.OrderItem{}).
		Where("order_id IN ?", orderIDs).
		Where("product_id <> ?", excludeProductID).
		Pluck("product_id", &ids).Error
	return ids, err
}

func (r *GormOrderRepository) PurchasedProductIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&domain.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ?", userID).
		Distinct().
		Pluck("order_items.product_id", &ids).Error
	return ids, err
}
