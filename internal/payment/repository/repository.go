package repository

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/storecraft/backend/internal/payment/domain"
	"gorm.io/gorm"
)

type GormPaymentRepository struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

func (r *GormPaymentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.Payment{}, &domain.Refund{})
}

func (r *GormPaymentRepository) Create(payment *domain.Payment) error {
	return r.db.Create(payment).Error
}

func (r *GormPaymentRepository) FindByID(id uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.First(&payment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) FindLatestByOrderID(orderID uint) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.Where("order_id = ?", orderID).Order("created_at DESC").First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) FindByIntentID(intentID string) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.Where("payment_intent_id = ?", intentID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormPaymentRepository) Update(payment *domain.Payment) error {
	return r.db.Save(payment).Error
}

func (r *GormPaymentRepository) CreateRefund(refund *domain.Refund) error {
	return r.db.Create(refund).Error
}

func (r *GormPaymentRepository) UpdateRefund(refund *domain.Refund) error {
	return r.db.Save(refund).Error
}

func (r *GormPaymentRepository) LatestPendingRefund(paymentID uint) (*domain.Refund, error) {
	var refund domain.Refund
	err := r.db.Where("payment_id = ? AND status = ?", paymentID, domain.RefundPending).
		Order("created_at DESC").
		First(&refund).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRefundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *GormPaymentRepository) ProcessedRefundTotal(paymentID uint) (decimal.Decimal, error) {
	var refunds []domain.Refund
	err := r.db.Where("payment_id = ? AND status = ?", paymentID, domain.RefundProcessed).
		Find(&refunds).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, refund := range refunds {
		total = total.Add(refund.Amount)
	}
	return total, nil
}
