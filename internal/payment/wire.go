//go:build wireinject
// +build wireinject

package payment

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	catalogrepo "github.com/storecraft/backend/internal/catalog/repository"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	orderrepo "github.com/storecraft/backend/internal/order/repository"
	paymenthttp "github.com/storecraft/backend/internal/payment/delivery/http"
	"github.com/storecraft/backend/internal/payment/domain"
	"github.com/storecraft/backend/internal/payment/repository"
	"github.com/storecraft/backend/internal/payment/usecase/command"
	"github.com/storecraft/backend/internal/payment/usecase/query"
)

// ProvidePaymentRepository provides the payment repository
func ProvidePaymentRepository(db *gorm.DB) domain.PaymentRepository {
	return repository.NewGormPaymentRepository(db)
}

func ProvideOrderRepository(db *gorm.DB) orderdomain.OrderRepository {
	return orderrepo.NewGormOrderRepository(db)
}

func ProvideCatalogRepository(db *gorm.DB) catalogdomain.CatalogRepository {
	return catalogrepo.NewGormCatalogRepository(db)
}

// Command Handlers Providers
func ProvideCreateIntentHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository, gateway domain.Gateway) *command.CreateIntentHandler {
	return command.NewCreateIntentHandler(payments, orders, gateway)
}

func ProvideRecordSuccessHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository, catalog catalogdomain.CatalogRepository) *command.RecordSuccessHandler {
	return command.NewRecordSuccessHandler(payments, orders, catalog)
}

func ProvideRecordFailureHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *command.RecordFailureHandler {
	return command.NewRecordFailureHandler(payments, orders)
}

func ProvideRequestRefundHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *command.RequestRefundHandler {
	return command.NewRequestRefundHandler(payments, orders)
}

func ProvideProcessRefundHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository, gateway domain.Gateway) *command.ProcessRefundHandler {
	return command.NewProcessRefundHandler(payments, orders, gateway)
}

// Query Handlers Providers
func ProvideGetPaymentHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *query.GetPaymentHandler {
	return query.NewGetPaymentHandler(payments, orders)
}

func ProvideGetOrderPaymentHandler(payments domain.PaymentRepository, orders orderdomain.OrderRepository) *query.GetOrderPaymentHandler {
	return query.NewGetOrderPaymentHandler(payments, orders)
}

func ProvideHandlerDeps(
	createIntent *command.CreateIntentHandler,
	recordSuccess *command.RecordSuccessHandler,
	recordFailure *command.RecordFailureHandler,
	requestRefund *command.RequestRefundHandler,
	processRefund *command.ProcessRefundHandler,
	getPayment *query.GetPaymentHandler,
	orderPayment *query.GetOrderPaymentHandler,
	gateway domain.Gateway,
	orders orderdomain.OrderRepository,
	publisher paymenthttp.EventPublisher,
) paymenthttp.PaymentHandlerDeps {
	return paymenthttp.PaymentHandlerDeps{
		CreateIntent:  createIntent,
		RecordSuccess: recordSuccess,
		RecordFailure: recordFailure,
		RequestRefund: requestRefund,
		ProcessRefund: processRefund,
		GetPayment:    getPayment,
		OrderPayment:  orderPayment,
		Gateway:       gateway,
		Orders:        orders,
		Publisher:     publisher,
	}
}

// Wire sets
var RepositorySet = wire.NewSet(
	ProvidePaymentRepository,
	ProvideOrderRepository,
	ProvideCatalogRepository,
)

var CommandHandlerSet = wire.NewSet(
	ProvideCreateIntentHandler,
	ProvideRecordSuccessHandler,
	ProvideRecordFailureHandler,
	ProvideRequestRefundHandler,
	ProvideProcessRefundHandler,
)

var QueryHandlerSet = wire.NewSet(
	ProvideGetPaymentHandler,
	ProvideGetOrderPaymentHandler,
)

var AllHandlersSet = wire.NewSet(
	RepositorySet,
	CommandHandlerSet,
	QueryHandlerSet,
	ProvideHandlerDeps,
)

// InitializeHandler initializes payment handler with all dependencies
func InitializeHandler(db *gorm.DB, gateway domain.Gateway, publisher paymenthttp.EventPublisher) (*paymenthttp.PaymentHandler, error) {
	wire.Build(
		AllHandlersSet,
		paymenthttp.NewPaymentHandler,
	)
	return nil, nil
}
