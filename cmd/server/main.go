package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpAdapter "github.com/eventfin/fincore/internal/adapter/http"
	"github.com/eventfin/fincore/internal/adapter/http/handler"
	"github.com/eventfin/fincore/internal/adapter/http/middleware"
	postgresRepo "github.com/eventfin/fincore/internal/adapter/repository/postgres"
	redisRepo "github.com/eventfin/fincore/internal/adapter/repository/redis"
	"github.com/eventfin/fincore/internal/infrastructure/auth"
	"github.com/eventfin/fincore/internal/infrastructure/config"
	"github.com/eventfin/fincore/internal/infrastructure/logger"
	"github.com/eventfin/fincore/internal/infrastructure/mailer"
	"github.com/eventfin/fincore/internal/infrastructure/metrics"
	"github.com/eventfin/fincore/internal/infrastructure/postgres"
	"github.com/eventfin/fincore/internal/infrastructure/redis"
	"github.com/eventfin/fincore/internal/infrastructure/render"
	"github.com/eventfin/fincore/internal/processor"
	"github.com/eventfin/fincore/internal/provider"
	"github.com/eventfin/fincore/internal/usecase"
)

// parseProviderConfigs decodes the PAYMENT_METHODS JSON array.
func parseProviderConfigs(raw string) ([]provider.Config, error) {
	var configs []provider.Config
	if err := json.Unmarshal([]byte(raw), &configs); err != nil {
		return nil, fmt.Errorf("parse payment methods: %w", err)
	}
	return configs, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Run database migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	ctx := context.Background()

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Payment providers
	providerConfigs, err := parseProviderConfigs(cfg.PaymentMethods)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse PAYMENT_METHODS")
	}
	providers := provider.NewRegistry(providerConfigs)
	for _, wrap := range providers.All() {
		if wrap.OK {
			log.Info().Str("provider", wrap.Name).Msg("payment provider configured")
		} else {
			log.Warn().Str("provider", wrap.Name).Err(wrap.Err).Msg("payment provider failed to configure")
		}
	}

	// Subsystem hooks. Nothing registers here yet; invoices without a
	// processor skip dispatch entirely.
	processors := processor.NewRegistry()

	// Document renderer and bank statement matcher share the prefix that
	// is stamped into every invoice transaction text.
	renderer, err := render.New(cfg.InvoiceTextPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build document renderer")
	}
	matcher := usecase.NewTransTextMatcher(cfg.InvoiceTextPrefix)

	appMetrics := metrics.New()

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	objectRepo := postgresRepo.NewObjectRepository(pool)
	yearRepo := postgresRepo.NewFiscalYearRepository(pool)
	journalRepo := postgresRepo.NewJournalRepository(pool)
	invoiceRepo := postgresRepo.NewInvoiceRepository(pool)
	refundRepo := postgresRepo.NewRefundRepository(pool)
	bankTxRepo := postgresRepo.NewBankTransactionRepository(pool)
	historyRepo := postgresRepo.NewHistoryRepository(pool)
	mailRepo := postgresRepo.NewMailRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier()

	// Initialize use cases
	ledgerUC := usecase.NewLedgerUseCase(
		txManager, accountRepo, objectRepo, yearRepo, journalRepo,
		mailRepo, idGen, appMetrics, cfg.NotificationReceiver,
	)
	invoiceUC := usecase.NewInvoiceUseCase(
		txManager, invoiceRepo, historyRepo, mailRepo,
		renderer, processors, idGen, appMetrics, cfg.InvoiceTextPrefix,
	)
	paymentUC := usecase.NewPaymentUseCase(
		txManager, invoiceRepo, bankTxRepo, historyRepo, mailRepo,
		ledgerUC, renderer, processors, matcher, idGen, retrier,
		appMetrics, log, cfg.SiteBase,
	)
	refundUC := usecase.NewRefundUseCase(
		txManager, invoiceRepo, refundRepo, historyRepo, mailRepo,
		ledgerUC, processors, providers, idGen, appMetrics, log,
		cfg.NotificationReceiver, cfg.SiteBase,
	)
	bankTxUC := usecase.NewBankTransactionUseCase(
		txManager, bankTxRepo, paymentUC, mailRepo, idGen, log,
		cfg.NotificationReceiver,
	)

	// Mail queue worker
	mailWorker := mailer.NewWorker(mailer.Config{
		Store:     mailRepo,
		Sender:    mailer.NewLogSender(slog.Default()),
		BatchSize: cfg.MailBatchSize,
		Interval:  cfg.MailPollInterval,
	})
	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	go func() {
		if err := mailWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("mail worker stopped")
		}
	}()

	// Authentication is optional; without a secret the API is open.
	var jwtManager *auth.JWTManager
	if cfg.AuthEnabled && cfg.JWTSecret != "" {
		jwtManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
		log.Info().Msg("JWT authentication enabled")
	}

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		InvoiceHandler: handler.NewInvoiceHandler(invoiceUC, providers),
		LedgerHandler:  handler.NewLedgerHandler(ledgerUC),
		RefundHandler:  handler.NewRefundHandler(refundUC),
		BankTxHandler:  handler.NewBankTransactionHandler(bankTxUC, paymentUC, providers),
		WebhookHandler: handler.NewWebhookHandler(
			paymentUC, refundUC, providers, idempotencyStore, cfg.IdempotencyTTL, log,
		),
		JobsHandler:      handler.NewJobsHandler(invoiceUC, refundUC, bankTxUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		LoggingHandler:   middleware.NewLoggingMiddleware(log),
		IdempotencyStore: idempotencyStore,
		JWTManager:       jwtManager,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
