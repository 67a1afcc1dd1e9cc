/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the CryptoHaven ledger engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env honored in development)
  2. Initialize SQLite store
  3. Wire service, processor, coordinator, scheduler
  4. Register and arm the daily accrual job
  5. Start server with graceful shutdown

CONFIGURATION (environment):
  PORT          HTTP server port (default: 8080)
  DB_PATH       SQLite database path (default: ./data/cryptohaven.db)
                Use ":memory:" for in-memory database
  ACCRUAL_CRON  Accrual job recurrence (default: "0 0 * * *")
  LOG_LEVEL     logrus level (default: info)

  The -port and -db flags override PORT and DB_PATH.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler, waiting for an in-flight run's firing to return
  4. Close database connection
  5. Exit

SEE ALSO:
  - api/server.go: Router configuration
  - accrual/coordinator.go: The run the scheduler fires
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/cryptohaven/ledger-engine/accrual"
	"github.com/cryptohaven/ledger-engine/api"
	"github.com/cryptohaven/ledger-engine/config"
	"github.com/cryptohaven/ledger-engine/ledger"
	"github.com/cryptohaven/ledger-engine/notify"
	"github.com/cryptohaven/ledger-engine/store/sqlite"
)

const accrualJob = "accrual"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}

	// Flags override the environment.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()
	cfg.Port = *port
	cfg.DBPath = *dbPath

	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Initialize store
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize database")
	}
	defer store.Close()

	// Wire the engine
	service := ledger.NewService(store)
	processor := accrual.NewProcessor(store, notify.LogGateway{})
	coordinator := accrual.NewCoordinator(store, store, processor)

	scheduler := accrual.NewScheduler()
	defer scheduler.Shutdown()

	if err := scheduler.Register(accrualJob, cfg.AccrualCron, func() {
		coordinator.Run(context.Background(), "scheduler")
	}); err != nil {
		log.WithError(err).Fatal("Failed to register accrual job")
	}
	if err := scheduler.Start(accrualJob); err != nil {
		log.WithError(err).Fatal("Failed to start accrual job")
	}

	// Create router
	handler := api.NewHandler(service, store, store, coordinator, scheduler)
	router := api.NewRouter(handler)

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(log.Fields{
			"addr":         cfg.Addr(),
			"db":           cfg.DBPath,
			"accrual_cron": cfg.AccrualCron,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("Server forced to shutdown")
	}

	log.Info("Server stopped")
}
