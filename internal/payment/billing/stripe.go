package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/refund"
	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/storecraft/backend/internal/payment/domain"
	"github.com/storecraft/backend/pkg/logger"
)

// Config holds Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string
}

func (c Config) Validate() error {
	if c.SecretKey == "" {
		return errors.New("stripe secret key is required")
	}
	if c.WebhookSecret == "" {
		return errors.New("stripe webhook secret is required")
	}
	return nil
}

// StripeGateway implements domain.Gateway against the Stripe API.
type StripeGateway struct {
	config Config
}

// NewStripeGateway creates a Stripe-backed payment gateway.
func NewStripeGateway(config Config) (*StripeGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stripe.Key = config.SecretKey

	return &StripeGateway{config: config}, nil
}

// CreateIntent creates a Stripe payment intent for an order total.
// Amounts are converted to minor currency units.
func (g *StripeGateway) CreateIntent(req domain.IntentRequest) (*domain.Intent, error) {
	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(minorUnits(req.Amount)),
		Currency:    stripe.String(currency),
		Description: stripe.String(req.Description),
	}
	params.AddMetadata("order_number", req.OrderNumber)
	if req.UserID != 0 {
		params.AddMetadata("user_id", fmt.Sprintf("%d", req.UserID))
	} else {
		params.AddMetadata("user_id", "guest")
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	logger.Logger.Info().
		Str("intent_id", intent.ID).
		Str("order_number", req.OrderNumber).
		Int64("amount_minor", minorUnits(req.Amount)).
		Msg("Payment intent created")

	return &domain.Intent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// CreateRefund asks Stripe to refund part of a payment intent.
func (g *StripeGateway) CreateRefund(req domain.RefundRequest) (*domain.RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(req.PaymentIntentID),
		Amount:        stripe.Int64(minorUnits(req.Amount)),
	}

	result, err := refund.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create refund: %w", err)
	}

	logger.Logger.Info().
		Str("refund_id", result.ID).
		Str("intent_id", req.PaymentIntentID).
		Msg("Refund created")

	return &domain.RefundResult{
		ID:     result.ID,
		Status: string(result.Status),
	}, nil
}

// ParseWebhook verifies the delivery signature and extracts the fields
// the mirror needs. Signature or payload failures map to
// domain.ErrInvalidWebhook so the handler can answer 400.
func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
	}

	parsed := &domain.WebhookEvent{Type: string(event.Type)}

	switch string(event.Type) {
	case domain.EventPaymentSucceeded, domain.EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidWebhook, err)
		}
		parsed.IntentID = intent.ID
		parsed.OrderNumber = intent.Metadata["order_number"]
		if intent.LastPaymentError != nil {
			parsed.ErrorMessage = intent.LastPaymentError.Msg
		}
	}

	return parsed, nil
}

func minorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
