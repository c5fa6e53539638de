package command

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	catalogrepo "github.com/storecraft/backend/internal/catalog/repository"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	orderrepo "github.com/storecraft/backend/internal/order/repository"
	"github.com/storecraft/backend/internal/payment/domain"
	"github.com/storecraft/backend/internal/payment/repository"
)

// fakeGateway is an in-memory processor double.
type fakeGateway struct {
	intents     int
	refunds     int
	refundErr   error
	lastRefund  domain.RefundRequest
	nextIntent  string
	nextRefund  string
	lastRequest domain.IntentRequest
}

func (g *fakeGateway) CreateIntent(req domain.IntentRequest) (*domain.Intent, error) {
	g.intents++
	g.lastRequest = req
	id := g.nextIntent
	if id == "" {
		id = "pi_test"
	}
	return &domain.Intent{ID: id, ClientSecret: id + "_secret"}, nil
}

func (g *fakeGateway) CreateRefund(req domain.RefundRequest) (*domain.RefundResult, error) {
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	g.refunds++
	g.lastRefund = req
	id := g.nextRefund
	if id == "" {
		id = "re_test"
	}
	return &domain.RefundResult{ID: id, Status: "succeeded"}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*domain.WebhookEvent, error) {
	return nil, domain.ErrInvalidWebhook
}

type fixture struct {
	db       *gorm.DB
	payments *repository.GormPaymentRepository
	orders   *orderrepo.GormOrderRepository
	catalog  *catalogrepo.GormCatalogRepository
	gateway  *fakeGateway
}

func setupFixture(t *testing.T) *fixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Product{},
		&catalogdomain.Category{},
		&catalogdomain.Brand{},
		&catalogdomain.Review{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&domain.Payment{},
		&domain.Refund{},
	))

	return &fixture{
		db:       db,
		payments: repository.NewGormPaymentRepository(db),
		orders:   orderrepo.NewGormOrderRepository(db),
		catalog:  catalogrepo.NewGormCatalogRepository(db),
		gateway:  &fakeGateway{},
	}
}

func (f *fixture) seedOrder(t *testing.T, userID uint, total float64) *orderdomain.Order {
	order := &orderdomain.Order{
		OrderNumber: "ORD-1001",
		UserID:      userID,
		Status:      orderdomain.StatusPending,
		Total:       total,
	}
	require.NoError(t, f.db.Create(order).Error)
	return order
}

func (f *fixture) seedProduct(t *testing.T, stock int) *catalogdomain.Product {
	product := &catalogdomain.Product{
		Name:     "Widget",
		SKU:      "WID-1",
		Price:    19.99,
		Stock:    stock,
		IsActive: true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func TestCreateIntentCreatesPendingPayment(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)

	handler := NewCreateIntentHandler(f.payments, f.orders, f.gateway)
	result, err := handler.Handle(CreateIntentCommand{OrderID: order.ID, UserID: 7})
	require.NoError(t, err)

	assert.Equal(t, "pi_test_secret", result.ClientSecret)
	assert.Equal(t, domain.StatusPending, result.Payment.Status)
	assert.True(t, result.Payment.Amount.Equal(decimal.NewFromFloat(49.99)))
	assert.Equal(t, "ORD-1001", f.gateway.lastRequest.OrderNumber)
}

func TestCreateIntentReusesPendingRow(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)

	handler := NewCreateIntentHandler(f.payments, f.orders, f.gateway)

	first, err := handler.Handle(CreateIntentCommand{OrderID: order.ID, UserID: 7})
	require.NoError(t, err)

	f.gateway.nextIntent = "pi_second"
	second, err := handler.Handle(CreateIntentCommand{OrderID: order.ID, UserID: 7})
	require.NoError(t, err)

	assert.Equal(t, first.Payment.ID, second.Payment.ID)
	assert.Equal(t, "pi_second", second.Payment.PaymentIntentID)

	var count int64
	require.NoError(t, f.db.Model(&domain.Payment{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCreateIntentRejectsForeignOrder(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)

	handler := NewCreateIntentHandler(f.payments, f.orders, f.gateway)
	_, err := handler.Handle(CreateIntentCommand{OrderID: order.ID, UserID: 8})

	assert.ErrorIs(t, err, domain.ErrNotOwner)
	assert.Zero(t, f.gateway.intents)
}

func TestRecordSuccessMarksPaidAndDecrementsStock(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	product := f.seedProduct(t, 10)
	require.NoError(t, f.db.Create(&orderdomain.OrderItem{
		OrderID: order.ID, ProductID: product.ID, Quantity: 3, UnitPrice: 19.99,
	}).Error)
	require.NoError(t, f.payments.Create(&domain.Payment{
		OrderID:         order.ID,
		PaymentIntentID: "pi_test",
		Amount:          decimal.NewFromFloat(49.99),
		Status:          domain.StatusPending,
	}))

	handler := NewRecordSuccessHandler(f.payments, f.orders, f.catalog)
	payment, err := handler.Handle(RecordSuccessCommand{IntentID: "pi_test", OrderNumber: order.OrderNumber})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, payment.Status)
	assert.Equal(t, "pi_test", payment.TransactionID)

	updated, err := f.orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPaid, updated.Status)

	stocked, err := f.catalog.FindProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stocked.Stock)
}

func TestRecordSuccessRejectsReplayedDelivery(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	product := f.seedProduct(t, 10)
	require.NoError(t, f.db.Create(&orderdomain.OrderItem{
		OrderID: order.ID, ProductID: product.ID, Quantity: 3, UnitPrice: 19.99,
	}).Error)
	require.NoError(t, f.payments.Create(&domain.Payment{
		OrderID:         order.ID,
		PaymentIntentID: "pi_test",
		Amount:          decimal.NewFromFloat(49.99),
		Status:          domain.StatusPending,
	}))

	handler := NewRecordSuccessHandler(f.payments, f.orders, f.catalog)
	_, err := handler.Handle(RecordSuccessCommand{IntentID: "pi_test", OrderNumber: order.OrderNumber})
	require.NoError(t, err)

	_, err = handler.Handle(RecordSuccessCommand{IntentID: "pi_test", OrderNumber: order.OrderNumber})
	require.Error(t, err)

	// Stock decremented exactly once.
	stocked, err := f.catalog.FindProductByID(product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stocked.Stock)
}

func TestRecordFailureMarksOrderPaymentFailed(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	require.NoError(t, f.payments.Create(&domain.Payment{
		OrderID:         order.ID,
		PaymentIntentID: "pi_test",
		Amount:          decimal.NewFromFloat(49.99),
		Status:          domain.StatusPending,
	}))

	handler := NewRecordFailureHandler(f.payments, f.orders)
	payment, err := handler.Handle(RecordFailureCommand{
		IntentID:     "pi_test",
		OrderNumber:  order.OrderNumber,
		ErrorMessage: "card declined",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusFailed, payment.Status)
	assert.Equal(t, "card declined", payment.ErrorMessage)

	updated, err := f.orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPaymentFailed, updated.Status)
}

func seedCompletedPayment(t *testing.T, f *fixture, order *orderdomain.Order, amount float64) *domain.Payment {
	payment := &domain.Payment{
		OrderID:         order.ID,
		PaymentIntentID: "pi_test",
		Amount:          decimal.NewFromFloat(amount),
		Status:          domain.StatusCompleted,
	}
	require.NoError(t, f.payments.Create(payment))
	return payment
}

func TestRequestRefundWithinBalance(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	payment := seedCompletedPayment(t, f, order, 49.99)

	handler := NewRequestRefundHandler(f.payments, f.orders)
	refund, err := handler.Handle(RequestRefundCommand{
		PaymentID: payment.ID,
		UserID:    7,
		Amount:    decimal.NewFromFloat(20),
		Reason:    "damaged item",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.RefundPending, refund.Status)
	assert.True(t, refund.Amount.Equal(decimal.NewFromFloat(20)))
}

func TestRequestRefundRejectsExcessAmount(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	payment := seedCompletedPayment(t, f, order, 49.99)

	handler := NewRequestRefundHandler(f.payments, f.orders)
	_, err := handler.Handle(RequestRefundCommand{
		PaymentID: payment.ID,
		UserID:    7,
		Amount:    decimal.NewFromFloat(50),
		Reason:    "damaged item",
	})

	assert.ErrorIs(t, err, domain.ErrRefundExceedsAmount)
}

func TestRequestRefundBoundCountsProcessedRefunds(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	payment := seedCompletedPayment(t, f, order, 49.99)

	require.NoError(t, f.payments.CreateRefund(&domain.Refund{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromFloat(30),
		Reason:    "partial",
		Status:    domain.RefundProcessed,
	}))

	handler := NewRequestRefundHandler(f.payments, f.orders)
	_, err := handler.Handle(RequestRefundCommand{
		PaymentID: payment.ID,
		UserID:    7,
		Amount:    decimal.NewFromFloat(25),
		Reason:    "rest",
	})
	assert.ErrorIs(t, err, domain.ErrRefundExceedsAmount)

	refund, err := handler.Handle(RequestRefundCommand{
		PaymentID: payment.ID,
		UserID:    7,
		Amount:    decimal.NewFromFloat(19.99),
		Reason:    "rest",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundPending, refund.Status)
}

func TestRequestRefundRequiresCompletedPayment(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	payment := &domain.Payment{
		OrderID:         order.ID,
		PaymentIntentID: "pi_test",
		Amount:          decimal.NewFromFloat(49.99),
		Status:          domain.StatusPending,
	}
	require.NoError(t, f.payments.Create(payment))

	handler := NewRequestRefundHandler(f.payments, f.orders)
	_, err := handler.Handle(RequestRefundCommand{
		PaymentID: payment.ID,
		UserID:    7,
		Amount:    decimal.NewFromFloat(10),
		Reason:    "changed my mind",
	})

	assert.ErrorIs(t, err, domain.ErrNotRefundable)
}

func TestProcessRefundCompletesFlow(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	payment := seedCompletedPayment(t, f, order, 49.99)
	require.NoError(t, f.payments.CreateRefund(&domain.Refund{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromFloat(49.99),
		Reason:    "damaged item",
		Status:    domain.RefundPending,
	}))

	handler := NewProcessRefundHandler(f.payments, f.orders, f.gateway)
	refund, err := handler.Handle(ProcessRefundCommand{PaymentID: payment.ID, UserID: 7})
	require.NoError(t, err)

	assert.Equal(t, domain.RefundProcessed, refund.Status)
	assert.Equal(t, "re_test", refund.RefundID)
	assert.True(t, f.gateway.lastRefund.Amount.Equal(decimal.NewFromFloat(49.99)))

	updatedPayment, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRefunded, updatedPayment.Status)

	updatedOrder, err := f.orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusRefunded, updatedOrder.Status)
}

func TestProcessRefundLeavesPendingOnGatewayError(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	payment := seedCompletedPayment(t, f, order, 49.99)
	require.NoError(t, f.payments.CreateRefund(&domain.Refund{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromFloat(49.99),
		Reason:    "damaged item",
		Status:    domain.RefundPending,
	}))

	f.gateway.refundErr = errors.New("processor unavailable")

	handler := NewProcessRefundHandler(f.payments, f.orders, f.gateway)
	_, err := handler.Handle(ProcessRefundCommand{PaymentID: payment.ID, UserID: 7})
	require.Error(t, err)

	pending, err := f.payments.LatestPendingRefund(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RefundPending, pending.Status)

	unchanged, err := f.payments.FindByID(payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, unchanged.Status)
}

func TestProcessRefundPartialKeepsOrderPaid(t *testing.T) {
	f := setupFixture(t)
	order := f.seedOrder(t, 7, 49.99)
	require.NoError(t, f.orders.UpdateStatus(order.ID, orderdomain.StatusPaid))
	payment := seedCompletedPayment(t, f, order, 49.99)
	require.NoError(t, f.payments.CreateRefund(&domain.Refund{
		PaymentID: payment.ID,
		Amount:    decimal.NewFromFloat(10),
		Reason:    "one item returned",
		Status:    domain.RefundPending,
	}))

	handler := NewProcessRefundHandler(f.payments, f.orders, f.gateway)
	refund, err := handler.Handle(ProcessRefundCommand{PaymentID: payment.ID, UserID: 7})
	require.NoError(t, err)
	assert.Equal(t, domain.RefundProcessed, refund.Status)

	updatedOrder, err := f.orders.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, orderdomain.StatusPaid, updatedOrder.Status)
}
