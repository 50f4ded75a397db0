package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fuelstation-ledger/internal/api"
	"github.com/fuelstation-ledger/internal/api/outbox_poller"
	"github.com/fuelstation-ledger/internal/api/service"
	"github.com/fuelstation-ledger/internal/config"
	"github.com/fuelstation-ledger/internal/data/postgres"
	"github.com/fuelstation-ledger/internal/domain/dayops"
	"github.com/fuelstation-ledger/internal/logger"
	"github.com/fuelstation-ledger/internal/platform/messaging/producers"
	"github.com/fuelstation-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting ledger API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize database with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for the audit topic
	auditProducer, err := producers.NewAuditEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	txRepo := postgres.NewTransactionRepository(log, postgresDB)
	balanceRepo := postgres.NewDailyBalanceRepository(log, postgresDB)
	opRepo := postgres.NewDailyOperationRepository(log, postgresDB)
	varianceRepo := postgres.NewVarianceLogRepository(log, postgresDB)
	cardTypeRepo := postgres.NewCardTypeRepository(log, postgresDB)
	cardPaymentRepo := postgres.NewCardPaymentRepository(log, postgresDB)
	outboxRepo := postgres.NewAuditOutboxRepository(log, postgresDB)

	// Initialize services
	poster := service.NewLedgerPoster(accountRepo, txRepo, balanceRepo, outboxRepo, log)
	accountService := service.NewAccountService(postgresDB, accountRepo, poster)
	transactionService := service.NewTransactionService(postgresDB, accountRepo, txRepo, poster)
	dayService := service.NewDayService(
		postgresDB,
		opRepo,
		balanceRepo,
		varianceRepo,
		txRepo,
		outboxRepo,
		dayops.TolerancePolicy{Floor: cfg.DayOps.ToleranceFloor, RateBps: cfg.DayOps.ToleranceRateBps},
		log,
	)
	cardService := service.NewCardService(postgresDB, cardTypeRepo, cardPaymentRepo, outboxRepo, poster, log)
	reconciliationService, err := service.NewReconciliationService(accountRepo, txRepo, cfg.WorkerPool.Size, log)
	if err != nil {
		log.Error("Failed to initialize reconciliation worker pool", "error", err)
		os.Exit(1)
	}

	// Initialize outbox poller
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, auditProducer, log)

	// Initialize REST server
	server := api.NewServer(log, cfg, accountService, transactionService, dayService, cardService, reconciliationService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Start outbox poller in goroutine
	go func() {
		log.Info("Starting audit outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Shutdown reconciliation worker pool
	reconciliationService.Shutdown()

	// Close audit Kafka producer
	if err = auditProducer.Close(); err != nil {
		log.Error("Error closing audit Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
