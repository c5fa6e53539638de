package kafka

import "time"

// PaymentEvent represents a payment lifecycle event
type PaymentEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	PaymentID   uint      `json:"payment_id"`
	OrderID     uint      `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      uint      `json:"user_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Timestamp   time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypePaymentCompleted = "payment.completed"
	EventTypePaymentFailed    = "payment.failed"
	EventTypeRefundProcessed  = "refund.processed"
)

// Kafka topics
const (
	TopicPaymentEvents = "payment-events"
)
