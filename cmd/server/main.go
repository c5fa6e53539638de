package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	catalogdomain "github.com/storecraft/backend/internal/catalog/domain"
	catalogrepo "github.com/storecraft/backend/internal/catalog/repository"
	"github.com/storecraft/backend/internal/config"
	"github.com/storecraft/backend/internal/history"
	historyhttp "github.com/storecraft/backend/internal/history/delivery/http"
	"github.com/storecraft/backend/internal/httpapi"
	orderdomain "github.com/storecraft/backend/internal/order/domain"
	orderrepo "github.com/storecraft/backend/internal/order/repository"
	"github.com/storecraft/backend/internal/payment"
	"github.com/storecraft/backend/internal/payment/billing"
	paymenthttp "github.com/storecraft/backend/internal/payment/delivery/http"
	paymentdomain "github.com/storecraft/backend/internal/payment/domain"
	"github.com/storecraft/backend/internal/recommend"
	recommendhttp "github.com/storecraft/backend/internal/recommend/delivery/http"
	"github.com/storecraft/backend/internal/search"
	searchhttp "github.com/storecraft/backend/internal/search/delivery/http"
	wishlisthttp "github.com/storecraft/backend/internal/wishlist/delivery/http"
	wishlistdomain "github.com/storecraft/backend/internal/wishlist/domain"
	wishlistrepo "github.com/storecraft/backend/internal/wishlist/repository"
	"github.com/storecraft/backend/kafka"
	"github.com/storecraft/backend/pkg/database"
	"github.com/storecraft/backend/pkg/logger"
	"github.com/storecraft/backend/pkg/tracing"
)

func main() {
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	logger.Logger.Info().
		Str("service", cfg.ServiceName).
		Str("environment", cfg.Environment).
		Str("log_level", cfg.LogLevel).
		Msg("Starting storefront server")

	// Initialize tracer
	tp, err := tracing.InitTracer(cfg.ServiceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Connect to database
	db, err := database.NewGormConnection(cfg.Database)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&catalogdomain.Product{},
		&catalogdomain.Category{},
		&catalogdomain.Brand{},
		&catalogdomain.Review{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&paymentdomain.Payment{},
		&paymentdomain.Refund{},
		&wishlistdomain.Wishlist{},
		&wishlistdomain.WishlistItem{},
		&wishlistdomain.WishlistShare{},
	); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	logger.Logger.Info().Msg("Database initialized successfully")

	// Connect to Redis for session view history
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("Failed to connect to Redis")
	}
	defer redisClient.Close()

	// Kafka publisher is optional; without brokers events are dropped
	var publisher paymenthttp.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := kafka.NewPublisher(cfg.KafkaBrokers)
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to initialize Kafka publisher")
		}
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
	} else {
		logger.Logger.Warn().Msg("KAFKA_BROKERS not set, payment events disabled")
	}

	// Payment gateway
	gateway, err := billing.NewStripeGateway(billing.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	})
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize payment gateway")
	}

	// Repositories and engines
	catalogRepo := catalogrepo.NewGormCatalogRepository(db)
	orderRepo := orderrepo.NewGormOrderRepository(db)
	wishlistRepo := wishlistrepo.NewGormWishlistRepository(db)
	historyStore := history.NewStore(redisClient, cfg.SessionTTL)

	searchEngine := search.NewEngine(db, catalogRepo)
	recommendEngine := recommend.NewEngine(db, catalogRepo, orderRepo)

	// Handlers
	paymentHandler, err := payment.InitializeHandler(db, gateway, publisher)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize payment handler")
	}
	searchHandler := searchhttp.NewSearchHandler(searchEngine)
	recommendHandler := recommendhttp.NewRecommendHandler(recommendEngine, historyStore)
	historyHandler := historyhttp.NewHistoryHandler(historyStore, catalogRepo)
	wishlistHandler := wishlisthttp.NewWishlistHandler(wishlistRepo, catalogRepo)

	startHTTPServer(cfg, searchHandler, recommendHandler, historyHandler, paymentHandler, wishlistHandler, sqlDB)
}

func startHTTPServer(
	cfg *config.Config,
	searchHandler *searchhttp.SearchHandler,
	recommendHandler *recommendhttp.RecommendHandler,
	historyHandler *historyhttp.HistoryHandler,
	paymentHandler *paymenthttp.PaymentHandler,
	wishlistHandler *wishlisthttp.WishlistHandler,
	sqlDB *sql.DB,
) {
	router := mux.NewRouter()

	middlewareConfig := httpapi.DefaultMiddlewareConfig(cfg.ServiceName)
	httpapi.RegisterMiddlewares(router, middlewareConfig)

	// Anonymous traffic still carries claims when a token is present so
	// personalized recommendations can pick up the user.
	public := router.NewRoute().Subrouter()
	public.Use(httpapi.OptionalAuthMiddleware())

	authed := router.NewRoute().Subrouter()
	authed.Use(httpapi.AuthMiddleware())

	searchHandler.RegisterRoutes(public)
	recommendHandler.RegisterRoutes(public)
	historyHandler.RegisterRoutes(public)
	paymentHandler.RegisterRoutes(public, authed)
	wishlistHandler.RegisterRoutes(public, authed)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := sqlDB.Ping(); err != nil {
			httpapi.RespondError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
		httpapi.RespondJSON(w, http.StatusOK, httpapi.Response{Success: true, Message: "healthy"})
	}).Methods("GET")

	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httpapi.SetupCORS(middlewareConfig)(router),
	}

	go func() {
		logger.Logger.Info().
			Str("port", cfg.Port).
			Str("metrics_endpoint", "/metrics").
			Msg("HTTP server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Forced shutdown")
	}
}
