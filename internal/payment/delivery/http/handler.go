package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/storecraft/backend/internal/httpapi"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	"github.com/storecraft/backend/internal/payment/domain"
	"github.com/storecraft/backend/internal/payment/usecase/command"
	"github.com/storecraft/backend/internal/payment/usecase/query"
	"github.com/storecraft/backend/kafka"
	"github.com/storecraft/backend/pkg/logger"
)

// maxWebhookBody bounds webhook payload reads.
const maxWebhookBody = 65536

// EventPublisher publishes payment lifecycle events. Nil disables
// publishing.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, eventType string, event kafka.PaymentEvent) error
}

// PaymentHandler handles HTTP requests for payments
type PaymentHandler struct {
	createIntent  *command.CreateIntentHandler
	recordSuccess *command.RecordSuccessHandler
	recordFailure *command.RecordFailureHandler
	requestRefund *command.RequestRefundHandler
	processRefund *command.ProcessRefundHandler
	getPayment    *query.GetPaymentHandler
	orderPayment  *query.GetOrderPaymentHandler

	gateway   domain.Gateway
	orders    orderdomain.OrderRepository
	publisher EventPublisher

	requestCounter *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	webhookCounter *prometheus.CounterVec
}

// PaymentHandlerDeps bundles the collaborators of the payment handler.
type PaymentHandlerDeps struct {
	CreateIntent  *command.CreateIntentHandler
	RecordSuccess *command.RecordSuccessHandler
	RecordFailure *command.RecordFailureHandler
	RequestRefund *command.RequestRefundHandler
	ProcessRefund *command.ProcessRefundHandler
	GetPayment    *query.GetPaymentHandler
	OrderPayment  *query.GetOrderPaymentHandler
	Gateway       domain.Gateway
	Orders        orderdomain.OrderRepository
	Publisher     EventPublisher
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(deps PaymentHandlerDeps) *PaymentHandler {
	requestCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_service_requests_total",
			Help: "Total number of payment requests",
		},
		[]string{"endpoint", "status"},
	)

	requestLatency := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_service_request_duration_seconds",
			Help:    "Duration of payment requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	webhookCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_service_webhooks_total",
			Help: "Total number of processor webhook deliveries",
		},
		[]string{"event_type", "status"},
	)

	prometheus.MustRegister(requestCounter)
	prometheus.MustRegister(requestLatency)
	prometheus.MustRegister(webhookCounter)

	return &PaymentHandler{
		createIntent:   deps.CreateIntent,
		recordSuccess:  deps.RecordSuccess,
		recordFailure:  deps.RecordFailure,
		requestRefund:  deps.RequestRefund,
		processRefund:  deps.ProcessRefund,
		getPayment:     deps.GetPayment,
		orderPayment:   deps.OrderPayment,
		gateway:        deps.Gateway,
		orders:         deps.Orders,
		publisher:      deps.Publisher,
		requestCounter: requestCounter,
		requestLatency: requestLatency,
		webhookCounter: webhookCounter,
	}
}

// RegisterRoutes registers payment routes. Authenticated routes must be
// mounted on a subrouter carrying the auth middleware by the caller.
func (h *PaymentHandler) RegisterRoutes(public, authed *mux.Router) {
	public.HandleFunc("/api/payments/webhook", h.HandleWebhook).Methods("POST")

	authed.HandleFunc("/api/orders/{id:[0-9]+}/payment-intent", h.CreateIntent).Methods("POST")
	authed.HandleFunc("/api/orders/{id:[0-9]+}/payment-return", h.PaymentReturn).Methods("GET")
	authed.HandleFunc("/api/payments/{id:[0-9]+}", h.GetPayment).Methods("GET")
	authed.HandleFunc("/api/payments/{id:[0-9]+}/refunds", h.RequestRefund).Methods("POST")
	authed.HandleFunc("/api/payments/{id:[0-9]+}/refunds/process", h.ProcessRefund).Methods("POST")
}

// CreateIntent handles POST /api/orders/{id}/payment-intent
func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("create_intent").Observe(time.Since(start).Seconds())
	}()

	orderID, ok := pathID(r)
	if !ok {
		h.requestCounter.WithLabelValues("create_intent", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	result, err := h.createIntent.Handle(command.CreateIntentCommand{
		OrderID: orderID,
		UserID:  httpapi.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("create_intent", "error").Inc()
		switch {
		case errors.Is(err, orderdomain.ErrOrderNotFound):
			httpapi.RespondError(w, http.StatusNotFound, "Order not found")
		case errors.Is(err, domain.ErrNotOwner):
			httpapi.RespondError(w, http.StatusForbidden, "Order does not belong to caller")
		default:
			logger.Error(r.Context()).Err(err).Uint("order_id", orderID).Msg("Failed to create payment intent")
			httpapi.RespondError(w, http.StatusInternalServerError, "Failed to create payment intent")
		}
		return
	}

	h.requestCounter.WithLabelValues("create_intent", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Data: map[string]interface{}{
			"payment":       result.Payment,
			"client_secret": result.ClientSecret,
		},
	})
}

// HandleWebhook handles POST /api/payments/webhook
func (h *PaymentHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("webhook").Observe(time.Since(start).Seconds())
	}()

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.webhookCounter.WithLabelValues("unknown", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Failed to read webhook body")
		return
	}

	event, err := h.gateway.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.webhookCounter.WithLabelValues("unknown", "invalid").Inc()
		logger.Warn(r.Context()).Err(err).Msg("Rejected webhook delivery")
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid webhook")
		return
	}

	switch event.Type {
	case domain.EventPaymentSucceeded:
		payment, err := h.recordSuccess.Handle(command.RecordSuccessCommand{
			IntentID:    event.IntentID,
			OrderNumber: event.OrderNumber,
		})
		if err != nil {
			h.webhookCounter.WithLabelValues(event.Type, "error").Inc()
			logger.Error(r.Context()).Err(err).Str("intent_id", event.IntentID).Msg("Failed to record payment success")
			httpapi.RespondError(w, http.StatusInternalServerError, "Failed to process webhook")
			return
		}
		h.publish(r.Context(), kafka.EventTypePaymentCompleted, payment)

	case domain.EventPaymentFailed:
		payment, err := h.recordFailure.Handle(command.RecordFailureCommand{
			IntentID:     event.IntentID,
			OrderNumber:  event.OrderNumber,
			ErrorMessage: event.ErrorMessage,
		})
		if err != nil {
			h.webhookCounter.WithLabelValues(event.Type, "error").Inc()
			logger.Error(r.Context()).Err(err).Str("intent_id", event.IntentID).Msg("Failed to record payment failure")
			httpapi.RespondError(w, http.StatusInternalServerError, "Failed to process webhook")
			return
		}
		h.publish(r.Context(), kafka.EventTypePaymentFailed, payment)

	default:
		// Acknowledge event types we do not act on so the processor
		// stops retrying them.
		logger.Debug(r.Context()).Str("event_type", event.Type).Msg("Ignoring webhook event type")
	}

	h.webhookCounter.WithLabelValues(event.Type, "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Message: "Webhook processed"})
}

// PaymentReturn handles GET /api/orders/{id}/payment-return
//
// Browsers land here after the processor redirect. The webhook is the
// source of truth; this endpoint only reports the reconciled state.
func (h *PaymentHandler) PaymentReturn(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("payment_return").Observe(time.Since(start).Seconds())
	}()

	orderID, ok := pathID(r)
	if !ok {
		h.requestCounter.WithLabelValues("payment_return", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid order ID")
		return
	}

	payment, err := h.orderPayment.Handle(query.GetOrderPaymentQuery{
		OrderID: orderID,
		UserID:  httpapi.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("payment_return", "error").Inc()
		switch {
		case errors.Is(err, orderdomain.ErrOrderNotFound), errors.Is(err, domain.ErrPaymentNotFound):
			httpapi.RespondError(w, http.StatusNotFound, "Payment not found")
		case errors.Is(err, domain.ErrNotOwner):
			httpapi.RespondError(w, http.StatusForbidden, "Order does not belong to caller")
		default:
			logger.Error(r.Context()).Err(err).Uint("order_id", orderID).Msg("Failed to load payment state")
			httpapi.RespondError(w, http.StatusInternalServerError, "Failed to load payment state")
		}
		return
	}

	order, err := h.orders.FindByID(orderID)
	if err != nil {
		h.requestCounter.WithLabelValues("payment_return", "error").Inc()
		httpapi.RespondError(w, http.StatusInternalServerError, "Failed to load order")
		return
	}

	// The webhook may still be in flight. Reconcile the order when the
	// payment already settled.
	if payment.IsSuccessful() && order.Status == orderdomain.StatusPending {
		if err := h.orders.UpdateStatus(order.ID, orderdomain.StatusPaid); err != nil {
			logger.Error(r.Context()).Err(err).Uint("order_id", orderID).Msg("Failed to reconcile order status")
		} else {
			order.Status = orderdomain.StatusPaid
		}
	}

	h.requestCounter.WithLabelValues("payment_return", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{
		Success: true,
		Data: map[string]interface{}{
			"order_status":   order.Status,
			"payment_status": payment.Status,
		},
	})
}

// GetPayment handles GET /api/payments/{id}
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("get_payment").Observe(time.Since(start).Seconds())
	}()

	paymentID, ok := pathID(r)
	if !ok {
		h.requestCounter.WithLabelValues("get_payment", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	payment, err := h.getPayment.Handle(query.GetPaymentQuery{
		PaymentID: paymentID,
		UserID:    httpapi.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("get_payment", "error").Inc()
		h.respondPaymentError(w, r, err, paymentID)
		return
	}

	h.requestCounter.WithLabelValues("get_payment", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: payment})
}

// RequestRefund handles POST /api/payments/{id}/refunds
func (h *PaymentHandler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("request_refund").Observe(time.Since(start).Seconds())
	}()

	paymentID, ok := pathID(r)
	if !ok {
		h.requestCounter.WithLabelValues("request_refund", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	var body struct {
		Amount decimal.Decimal `json:"amount"`
		Reason string          `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.requestCounter.WithLabelValues("request_refund", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	refund, err := h.requestRefund.Handle(command.RequestRefundCommand{
		PaymentID: paymentID,
		UserID:    httpapi.UserIDFromContext(r.Context()),
		Amount:    body.Amount,
		Reason:    body.Reason,
	})
	if err != nil {
		h.requestCounter.WithLabelValues("request_refund", "error").Inc()
		switch {
		case errors.Is(err, domain.ErrNotRefundable):
			httpapi.RespondError(w, http.StatusConflict, "Payment cannot be refunded")
		case errors.Is(err, domain.ErrRefundExceedsAmount):
			httpapi.RespondError(w, http.StatusUnprocessableEntity, "Refund amount exceeds refundable balance")
		default:
			h.respondPaymentError(w, r, err, paymentID)
		}
		return
	}

	h.requestCounter.WithLabelValues("request_refund", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusCreated, httpapi.Response{Success: true, Data: refund})
}

// ProcessRefund handles POST /api/payments/{id}/refunds/process
func (h *PaymentHandler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		h.requestLatency.WithLabelValues("process_refund").Observe(time.Since(start).Seconds())
	}()

	paymentID, ok := pathID(r)
	if !ok {
		h.requestCounter.WithLabelValues("process_refund", "error").Inc()
		httpapi.RespondError(w, http.StatusBadRequest, "Invalid payment ID")
		return
	}

	refund, err := h.processRefund.Handle(command.ProcessRefundCommand{
		PaymentID: paymentID,
		UserID:    httpapi.UserIDFromContext(r.Context()),
	})
	if err != nil {
		h.requestCounter.WithLabelValues("process_refund", "error").Inc()
		switch {
		case errors.Is(err, domain.ErrRefundNotFound):
			httpapi.RespondError(w, http.StatusNotFound, "No pending refund")
		default:
			h.respondPaymentError(w, r, err, paymentID)
		}
		return
	}

	if payment, perr := h.getPayment.Handle(query.GetPaymentQuery{
		PaymentID: paymentID,
		UserID:    httpapi.UserIDFromContext(r.Context()),
	}); perr == nil {
		h.publish(r.Context(), kafka.EventTypeRefundProcessed, payment)
	}

	h.requestCounter.WithLabelValues("process_refund", "ok").Inc()
	httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Data: refund})
}

func (h *PaymentHandler) respondPaymentError(w http.ResponseWriter, r *http.Request, err error, paymentID uint) {
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		httpapi.RespondError(w, http.StatusNotFound, "Payment not found")
	case errors.Is(err, domain.ErrNotOwner):
		httpapi.RespondError(w, http.StatusForbidden, "Payment does not belong to caller")
	default:
		logger.Error(r.Context()).Err(err).Uint("payment_id", paymentID).Msg("Payment request failed")
		httpapi.RespondError(w, http.StatusInternalServerError, "Payment request failed")
	}
}

func (h *PaymentHandler) publish(ctx context.Context, eventType string, payment *domain.Payment) {
	if h.publisher == nil || payment == nil {
		return
	}

	order, err := h.orders.FindByID(payment.OrderID)
	if err != nil {
		logger.Warn(ctx).Err(err).Uint("payment_id", payment.ID).Msg("Skipping event publish")
		return
	}

	event := kafka.PaymentEvent{
		PaymentID:   payment.ID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Amount:      payment.Amount.StringFixed(2),
		Currency:    payment.Currency,
	}
	if err := h.publisher.PublishPaymentEvent(ctx, eventType, event); err != nil {
		logger.Warn(ctx).Err(err).Str("event_type", eventType).Msg("Failed to publish payment event")
	}
}

func pathID(r *http.Request) (uint, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
