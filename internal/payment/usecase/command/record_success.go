package command

import (
	"fmt"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	"github.com/storecraft/backend/internal/payment/domain"
)

// RecordSuccessCommand mirrors a processor success notification.
type RecordSuccessCommand struct {
	IntentID    string
	OrderNumber string
}

// RecordSuccessHandler marks the order paid, completes the payment and
// decrements stock for every line item.
type RecordSuccessHandler struct {
	payments domain.PaymentRepository
	orders   orderdomain.OrderRepository
	catalog  catalogdomain.CatalogRepository
}

func NewRecordSuccessHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository, catalog catalogdomain.CatalogRepository) *RecordSuccessHandler {
	return &RecordSuccessHandler{payments: payments, orders: orders, catalog: catalog}
}

// Handle applies the success notification. The guarded transition makes
// replayed deliveries fail before any stock is touched again.
func (h *RecordSuccessHandler) Handle(cmd RecordSuccessCommand) (*domain.Payment, error) {
	order, err := h.orders.FindByOrderNumber(cmd.OrderNumber)
	if err != nil {
		return nil, err
	}

	payment, err := h.payments.FindByIntentID(cmd.IntentID)
	if err != nil {
		return nil, err
	}

	if err := payment.TransitionTo(domain.StatusCompleted); err != nil {
		return nil, err
	}
	payment.TransactionID = cmd.IntentID
	if err := h.payments.Update(payment); err != nil {
		return nil, fmt.Errorf("failed to update payment: %w", err)
	}

	if err := h.orders.UpdateStatus(order.ID, orderdomain.StatusPaid); err != nil {
		return nil, fmt.Errorf("failed to mark order paid: %w", err)
	}

	items, err := h.orders.ItemsByOrderID(order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	for _, item := range items {
		if err := h.catalog.DecrementStock(item.ProductID, item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to decrement stock for product %d: %w", item.ProductID, err)
		}
	}

	return payment, nil
}
