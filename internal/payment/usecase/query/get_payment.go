package query

import (
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	"github.com/storecraft/backend/internal/payment/domain"
)

// GetPaymentQuery fetches a payment by ID for its owner.
type GetPaymentQuery struct {
	PaymentID uint
	UserID    uint
}

type GetPaymentHandler struct {
	payments domain.PaymentRepository
	orders   orderdomain.OrderRepository
}

func NewGetPaymentHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *GetPaymentHandler {
	return &GetPaymentHandler{payments: payments, orders: orders}
}

func (h *GetPaymentHandler) Handle(q GetPaymentQuery) (*domain.Payment, error) {
	payment, err := h.payments.FindByID(q.PaymentID)
	if err != nil {
		return nil, err
	}

	order, err := h.orders.FindByID(payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != q.UserID {
		return nil, domain.ErrNotOwner
	}

	return payment, nil
}

// GetOrderPaymentQuery fetches the latest payment attempt of an order.
type GetOrderPaymentQuery struct {
	OrderID uint
	UserID  uint
}

type GetOrderPaymentHandler struct {
	payments domain.PaymentRepository
	orders   orderdomain.OrderRepository
}

func NewGetOrderPaymentHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *GetOrderPaymentHandler {
	return &GetOrderPaymentHandler{payments: payments, orders: orders}
}

func (h *GetOrderPaymentHandler) Handle(q GetOrderPaymentQuery) (*domain.Payment, error) {
	order, err := h.orders.FindByID(q.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != 0 && q.UserID != 0 && order.UserID != q.UserID {
		return nil, domain.ErrNotOwner
	}

	return h.payments.FindLatestByOrderID(order.ID)
}
