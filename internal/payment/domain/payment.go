package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrRefundNotFound      = errors.New("refund not found")
	ErrNotRefundable       = errors.New("payment cannot be refunded")
	ErrRefundExceedsAmount = errors.New("refund amount exceeds refundable balance")
	ErrNotOwner            = errors.New("payment does not belong to caller")
)

// Status is the local mirror of the processor's payment state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRefunded   Status = "refunded"
)

// transitions is the guarded state machine. failed and refunded are
// terminal; a replayed processor notification lands on an empty row
// here and is rejected instead of reapplied.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed},
	StatusProcessing: {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusRefunded},
	StatusFailed:     {},
	StatusRefunded:   {},
}

// ErrInvalidTransition wraps a rejected status transition.
type ErrInvalidTransition struct {
	From Status
	To   Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("invalid payment transition %s -> %s", e.From, e.To)
}

// CanTransitionTo reports whether the transition is allowed.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Payment mirrors one payment attempt at the processor.
type Payment struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	OrderID         uint            `json:"order_id" gorm:"not null;index"`
	PaymentIntentID string          `json:"payment_intent_id" gorm:"index"`
	TransactionID   string          `json:"transaction_id"`
	Amount          decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Currency        string          `json:"currency" gorm:"default:'USD'"`
	Status          Status          `json:"status" gorm:"default:'pending'"`
	PaymentMethod   string          `json:"payment_method"`
	LastFour        string          `json:"last_four"`
	ErrorMessage    string          `json:"error_message,omitempty"`
	RefundReason    string          `json:"refund_reason,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	DeletedAt       gorm.DeletedAt  `json:"-" gorm:"index"`
}

func (Payment) TableName() string {
	return "payments"
}

// TransitionTo applies a guarded status change.
func (p *Payment) TransitionTo(next Status) error {
	if !p.Status.CanTransitionTo(next) {
		return &ErrInvalidTransition{From: p.Status, To: next}
	}
	p.Status = next
	return nil
}

// IsSuccessful reports whether the payment completed.
func (p *Payment) IsSuccessful() bool {
	return p.Status == StatusCompleted
}

// IsRefunded reports whether the payment has been refunded.
func (p *Payment) IsRefunded() bool {
	return p.Status == StatusRefunded
}

// CanBeRefunded reports whether a refund may be requested.
func (p *Payment) CanBeRefunded() bool {
	return p.IsSuccessful() && !p.IsRefunded()
}

// RefundStatus is the state of a single refund attempt.
type RefundStatus string

const (
	RefundPending   RefundStatus = "pending"
	RefundProcessed RefundStatus = "processed"
	RefundFailed    RefundStatus = "failed"
)

// Refund is one refund attempt against a payment.
type Refund struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	PaymentID uint            `json:"payment_id" gorm:"not null;index"`
	RefundID  string          `json:"refund_id"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(10,2);not null"`
	Reason    string          `json:"reason"`
	Status    RefundStatus    `json:"status" gorm:"default:'pending'"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Refund) TableName() string {
	return "refunds"
}

// PaymentRepository defines the contract for payment data access
type PaymentRepository interface {
	Create(payment *Payment) error
	FindByID(id uint) (*Payment, error)
	FindLatestByOrderID(orderID uint) (*Payment, error)
	FindByIntentID(intentID string) (*Payment, error)
	Update(payment *Payment) error

	CreateRefund(refund *Refund) error
	UpdateRefund(refund *Refund) error
	LatestPendingRefund(paymentID uint) (*Refund, error)
	ProcessedRefundTotal(paymentID uint) (decimal.Decimal, error)
}

// IntentRequest asks the processor for a new payment intent.
type IntentRequest struct {
	OrderNumber string
	UserID      uint
	Amount      decimal.Decimal
	Currency    string
	Description string
}

// Intent is the processor's handle for a created payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// RefundRequest asks the processor to refund part of an intent.
type RefundRequest struct {
	PaymentIntentID string
	Amount          decimal.Decimal
}

// RefundResult is the processor's answer to a refund request.
type RefundResult struct {
	ID     string
	Status string
}

// Webhook event types mirrored from the processor.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// ErrInvalidWebhook marks an unverifiable or malformed webhook delivery.
var ErrInvalidWebhook = errors.New("invalid webhook payload or signature")

// WebhookEvent is the parsed, verified processor notification.
type WebhookEvent struct {
	Type         string
	IntentID     string
	OrderNumber  string
	ErrorMessage string
}

// Gateway is the payment processor client.
type Gateway interface {
	CreateIntent(req IntentRequest) (*Intent, error)
	CreateRefund(req RefundRequest) (*RefundResult, error)
	ParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}
