package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marco-erp/ledger-core/internal/accounting"
	"github.com/marco-erp/ledger-core/internal/api"
	"github.com/marco-erp/ledger-core/internal/config"
	"github.com/marco-erp/ledger-core/internal/data/postgres"
	"github.com/marco-erp/ledger-core/internal/domain/shared"
	"github.com/marco-erp/ledger-core/internal/logger"
	"github.com/marco-erp/ledger-core/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledgerd")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize database with app context; migrations run during startup
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	fiscalRepo := postgres.NewFiscalYearRepository(log, postgresDB)
	journalRepo := postgres.NewJournalEntryRepository(log, postgresDB)

	// Initialize cross-cutting collaborators
	clock := shared.SystemClock{}
	currentUser := shared.StaticUser("system")
	authorizer := shared.AllowAll{}
	audit := postgres.NewAuditLogRepository(log, clock)
	sequence := postgres.NewJournalSequenceGenerator(log, cfg.Ledger.JournalNumberPrefix)

	// Initialize services
	closingEngine := accounting.NewClosingEngine(log, accountRepo, journalRepo, sequence,
		currentUser, clock, audit, cfg.Ledger.RetainedEarningsCode)
	accountService := accounting.NewAccountService(log, accountRepo, journalRepo, postgresDB,
		authorizer, currentUser, clock, audit)
	fiscalYearService := accounting.NewFiscalYearService(log, fiscalRepo, journalRepo, closingEngine,
		postgresDB, authorizer, currentUser, clock, audit)
	journalService := accounting.NewJournalService(log, journalRepo, accountRepo, fiscalRepo,
		sequence, postgresDB, authorizer, currentUser, clock, audit)

	// Initialize REST server
	server := api.NewServer(cfg, log, accountService, fiscalYearService, journalService)
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

	// Shutdown HTTP server before closing the connection pool
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

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
