package command

import (
	"fmt"

	orderdomain "github.com/storecraft/backend/internal/order/domain"
	"github.com/storecraft/backend/internal/payment/domain"
)

// ProcessRefundCommand pushes the latest pending refund of a payment
// through the processor.
type ProcessRefundCommand struct {
	PaymentID uint
	UserID    uint
}

// ProcessRefundHandler calls the processor and mirrors the outcome.
type ProcessRefundHandler struct {
	payments domain.PaymentRepository
	orders   orderdomain.OrderRepository
	gateway  domain.Gateway
}

func NewProcessRefundHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository, gateway domain.Gateway) *ProcessRefundHandler {
	return &ProcessRefundHandler{payments: payments, orders: orders, gateway: gateway}
}

// Handle processes the refund. On processor failure the refund row
// stays pending so the request can be retried.
func (h *ProcessRefundHandler) Handle(cmd ProcessRefundCommand) (*domain.Refund, error) {
	payment, err := h.payments.FindByID(cmd.PaymentID)
	if err != nil {
		return nil, err
	}

	order, err := h.orders.FindByID(payment.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != cmd.UserID {
		return nil, domain.ErrNotOwner
	}

	refund, err := h.payments.LatestPendingRefund(payment.ID)
	if err != nil {
		return nil, err
	}

	result, err := h.gateway.CreateRefund(domain.RefundRequest{
		PaymentIntentID: payment.PaymentIntentID,
		Amount:          refund.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("processor refund failed: %w", err)
	}

	refund.RefundID = result.ID
	refund.Status = domain.RefundProcessed
	if err := h.payments.UpdateRefund(refund); err != nil {
		return nil, fmt.Errorf("failed to update refund: %w", err)
	}

	if err := payment.TransitionTo(domain.StatusRefunded); err != nil {
		return nil, err
	}
	payment.RefundReason = refund.Reason
	if err := h.payments.Update(payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	// A fully refunded payment flips the order as well.
	refunded, err := h.payments.ProcessedRefundTotal(payment.ID)
	if err != nil {
		return nil, err
	}
	if refunded.GreaterThanOrEqual(payment.Amount) {
		if err := h.orders.UpdateStatus(order.ID, orderdomain.StatusRefunded); err != nil {
			return nil, fmt.Errorf("failed to mark order refunded: %w", err)
		}
	}

	return refund, nil
}
