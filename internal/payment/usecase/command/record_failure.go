package command

import (
	"fmt"

	orderdomain "github.com/storecraft/backend/internal/order/domain"
	"github.com/storecraft/backend/internal/payment/domain"
)

// RecordFailureCommand mirrors a processor failure notification.
type RecordFailureCommand struct {
	IntentID     string
	OrderNumber  string
	ErrorMessage string
}

// RecordFailureHandler marks the order payment-failed and records the
// processor-supplied error message on the payment.
type RecordFailureHandler struct {
	payments domain.PaymentRepository
	orders   orderdomain.OrderRepository
}

func NewRecordFailureHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *RecordFailureHandler {
	return &RecordFailureHandler{payments: payments, orders: orders}
}

// Handle applies the failure notification.
func (h *RecordFailureHandler) Handle(cmd RecordFailureCommand) (*domain.Payment, error) {
	order, err := h.orders.FindByOrderNumber(cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	payment, err := h.payments.FindByIntentID(cmd.IntentID)
	if err != nil {
		return nil, err
	}

	if err := payment.TransitionTo(domain.StatusFailed); err != nil {
		return nil, err
	}
	payment.ErrorMessage = cmd.ErrorMessage
	if err := h.payments.Update(payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	if err := h.orders.UpdateStatus(order.ID, orderdomain.StatusPaymentFailed); err != nil {
		return nil, fmt.Errorf("failed to mark order payment-failed: %w", err)
	}

	return payment, nil
}
