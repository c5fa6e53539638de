package command

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	"github.com/storecraft/backend/internal/payment/domain"
)

// CreateIntentCommand asks the processor for a payment intent covering
// an order total.
type CreateIntentCommand struct {
	OrderID uint
	UserID  uint
}

// CreateIntentResult carries the client secret back to the checkout page.
type CreateIntentResult struct {
	Payment      *domain.Payment
	ClientSecret string
}

// CreateIntentHandler handles payment intent creation
type CreateIntentHandler struct {
	payments domain.PaymentRepository
	orders   orderdomain.OrderRepository
	gateway  domain.Gateway
}

func NewCreateIntentHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository, gateway domain.Gateway) *CreateIntentHandler {
	return &CreateIntentHandler{payments: payments, orders: orders, gateway: gateway}
}

// Handle creates a processor intent and upserts the local pending
// payment row for the order.
func (h *CreateIntentHandler) Handle(cmd CreateIntentCommand) (*CreateIntentResult, error) {
	if cmd.OrderID == 0 {
		return nil, fmt.Errorf("order_id is required")
	}

	order, err := h.orders.FindByID(cmd.OrderID)
	if err != nil {
		return nil, err
	}

	// Orders may be placed as guest (UserID zero); only a mismatch
	// between two real users is a violation.
	if order.UserID != 0 && cmd.UserID != 0 && order.UserID != cmd.UserID {
		return nil, domain.ErrNotOwner
	}

	amount := decimal.NewFromFloat(order.Total)

	intent, err := h.gateway.CreateIntent(domain.IntentRequest{
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Amount:      amount,
		Currency:    "usd",
		Description: fmt.Sprintf("Payment for Order #%s", order.OrderNumber),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	payment, err := h.payments.FindLatestByOrderID(order.ID)
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound) || (err == nil && payment.Status != domain.StatusPending):
		payment = &domain.Payment{
			OrderID:         order.ID,
			PaymentIntentID: intent.ID,
			Amount:          amount,
			Status:          domain.StatusPending,
		}
		if err := h.payments.Create(payment); err != nil {
			return nil, fmt.Errorf("failed to record payment: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		payment.PaymentIntentID = intent.ID
		payment.Amount = amount
		if err := h.payments.Update(payment); err != nil {
			return nil, fmt.Errorf("failed to update payment: %w", err)
		}
	}

	return &CreateIntentResult{
		Payment:      payment,
		ClientSecret: intent.ClientSecret,
	}, nil
}
