package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/orderdesk/orderdesk/internal/advpayments"
	"github.com/orderdesk/orderdesk/internal/app"
	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/clients"
	"github.com/orderdesk/orderdesk/internal/dashboard"
	"github.com/orderdesk/orderdesk/internal/observability"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/platform/cache"
	"github.com/orderdesk/orderdesk/internal/platform/db"
	"github.com/orderdesk/orderdesk/internal/products"
	"github.com/orderdesk/orderdesk/internal/shared"
	"github.com/orderdesk/orderdesk/internal/suborders"
	"github.com/orderdesk/orderdesk/internal/transactions"
	"github.com/orderdesk/orderdesk/jobs"
	"github.com/orderdesk/orderdesk/report"
)

// orderRefSource lets the payment service resolve orders without importing
// the orders package directly.
type orderRefSource struct {
	orders *orders.Service
}

func (s orderRefSource) OrderRef(ctx context.Context, id int64) (transactions.OrderRef, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			return transactions.OrderRef{}, shared.ErrNotFound
		}
		return transactions.OrderRef{}, err
	}
	return transactions.OrderRef{ID: order.ID, ClientID: order.ClientID, Status: order.Status}, nil
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	fileStore, err := shared.NewFileStore(cfg.UploadDir)
	if err != nil {
		logger.Error("init file store", slog.Any("error", err))
		os.Exit(1)
	}

	auditLogger := shared.NewAuditLogger(pool)
	dashCache := dashboard.NewCache(redisClient, cfg.DashboardCacheTTL)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, redisClient, cfg.SessionTTL)
	authHandler := auth.NewHandler(logger, authService, cfg.SessionTTL, cfg.IsProduction())

	clientsRepo := clients.NewRepository(pool)
	clientsService := clients.NewService(clientsRepo, dashCache, auditLogger)
	clientsHandler := clients.NewHandler(logger, clientsService)

	productsRepo := products.NewRepository(pool)
	productsService := products.NewService(productsRepo, dashCache, auditLogger)
	productsHandler := products.NewHandler(logger, productsService)

	ordersRepo := orders.NewRepository(pool)
	ordersService := orders.NewService(ordersRepo, clientsRepo, dashCache, auditLogger)
	ordersHandler := orders.NewHandler(logger, ordersService)

	subOrdersRepo := suborders.NewRepository(pool)
	subOrdersService := suborders.NewService(subOrdersRepo, dashCache, auditLogger)
	subOrdersHandler := suborders.NewHandler(logger, subOrdersService)

	transactionsRepo := transactions.NewRepository(pool)
	transactionsService := transactions.NewService(transactionsRepo, orderRefSource{orders: ordersService}, fileStore, dashCache, auditLogger)
	transactionsHandler := transactions.NewHandler(logger, transactionsService)

	advRepo := advpayments.NewRepository(pool)
	advService := advpayments.NewService(advRepo, clientsRepo, transactionsService, fileStore, dashCache, auditLogger)
	advHandler := advpayments.NewHandler(logger, advService)

	dashRepo := dashboard.NewRepository(pool)
	dashService := dashboard.NewService(dashRepo, dashCache)
	dashHandler := dashboard.NewHandler(logger, dashService)

	pdfClient := report.NewClient(cfg.GotenbergURL)
	reportHandler := report.NewHandler(logger, pdfClient, ordersService, clientsService, productsService, transactionsService, advService, subOrdersService)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:                 logger,
		Config:                 cfg,
		Auth:                   authService,
		AuthHandler:            authHandler,
		ClientsHandler:         clientsHandler,
		ProductsHandler:        productsHandler,
		OrdersHandler:          ordersHandler,
		SubOrdersHandler:       subOrdersHandler,
		TransactionsHandler:    transactionsHandler,
		AdvancePaymentsHandler: advHandler,
		DashboardHandler:       dashHandler,
		ReportHandler:          reportHandler,
		JobHandler:             jobHandler,
		Metrics:                metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
