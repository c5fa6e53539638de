package command

import (
	"fmt"

	"github.com/shopspring/decimal"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	"github.com/storecraft/backend/internal/payment/domain"
)

// RequestRefundCommand records a refund request against a payment.
type RequestRefundCommand struct {
	PaymentID uint
	UserID    uint
	Amount    decimal.Decimal
	Reason    string
}

// RequestRefundHandler validates refundability and the amount bound
// before any processor call is made.
type RequestRefundHandler struct {
	payments domain.PaymentRepository
	orders   orderdomain.OrderRepository
}

func NewRequestRefundHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *RequestRefundHandler {
	return &RequestRefundHandler{payments: payments, orders: orders}
}

// Handle creates a pending refund row.
func (h *RequestRefundHandler) Handle(cmd RequestRefundCommand) (*domain.Refund, error) {
	if cmd.PaymentID == 0 {
		return nil, fmt.Errorf("payment_id is required")
	}
	if cmd.Reason == "" {
		return nil, fmt.Errorf("reason is required")
	}

	payment, err := h.payments.FindByID(cmd.PaymentID)
	if err != nil {
		return nil, err
	}

	if err := h.checkOwnership(payment, cmd.UserID); err != nil {
		return nil, err
	}

	if !payment.CanBeRefunded() {
		return nil, domain.ErrNotRefundable
	}

	if cmd.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than 0")
	}

	refunded, err := h.payments.ProcessedRefundTotal(payment.ID)
	if err != nil {
		return nil, err
	}
	if cmd.Amount.GreaterThan(payment.Amount.Sub(refunded)) {
		return nil, domain.ErrRefundExceedsAmount
	}

	refund := &domain.Refund{
		PaymentID: payment.ID,
		Amount:    cmd.Amount,
		Reason:    cmd.Reason,
		Status:    domain.RefundPending,
	}
	if err := h.payments.CreateRefund(refund); err != nil {
		return nil, fmt.Errorf("failed to record refund request: %w", err)
	}

	return refund, nil
}

func (h *RequestRefundHandler) checkOwnership(payment *domain.Payment, userID uint) error {
	order, err := h.orders.FindByID(payment.OrderID)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return domain.ErrNotOwner
	}
	return nil
}
