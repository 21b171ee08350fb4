/**
 * @description
 * This is the main entry point for the billing-service.
 * It initializes and wires together all the components of the application:
 * configuration, database connection, the PayPal provider client (real or
 * mock, selected once by configuration), the RabbitMQ producer, the
 * reconciliation cron, and the HTTP router. Finally, it starts the HTTP
 * server to listen for incoming requests.
 */
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/langeval/billing-service/internal/api"
	"github.com/langeval/billing-service/internal/app"
	"github.com/langeval/billing-service/internal/config"
	"github.com/langeval/billing-service/internal/store"
	"github.com/langeval/billing-service/pkg/paypalclient"
	"github.com/langeval/billing-service/pkg/rabbitmq"
)

func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using environment variables")
	}

	// Load application configuration from environment variables
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up channel to listen for OS signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Establish connection to the PostgreSQL database
	dbpool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("unable to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()
	logger.Info("database connection established")

	// Select the PayPal provider implementation once, at construction.
	provider := paypalclient.New(paypalclient.Config{
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		Mode:         cfg.PayPalMode,
	}, logger)
	if cfg.PayPalClientID == paypalclient.MockClientID {
		logger.Warn("paypal client running in mock mode; no provider traffic will be sent")
	}

	// Set up the event publisher. RabbitMQ is optional for local mock-mode runs.
	var publisher app.EventPublisher
	if cfg.RabbitMQURL != "" {
		producer, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		publisher = producer
	} else {
		logger.Warn("RABBITMQ_URL not set; billing events will not be published")
		publisher = app.NoopPublisher{}
	}

	// Initialize application layers
	repository := store.NewRepository(dbpool)
	service := app.NewService(provider, repository, publisher, cfg.PlanMapping(), logger)
	handler := api.NewHandler(service)
	webhook := api.NewWebhookHandler(service, cfg.PayPalWebhookSecret, logger)
	router := api.NewRouter(handler, webhook, cfg.ClerkJWKSURL)

	// Start the reconciliation cron for workspaces awaiting activation.
	jobs := app.NewJobs(repository, service, logger)
	scheduler := app.NewScheduler(jobs, logger, cfg.ReconcileJobSchedule)
	scheduler.Start()

	// Configure and start the HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: router,
	}

	go func() {
		logger.Info("starting server", "port", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for an OS signal
	<-sigCh
	logger.Info("shutdown signal received, gracefully shutting down")

	// Stop scheduling new reconciliation passes and wait for running ones.
	<-scheduler.Stop().Done()

	// Create a context with a timeout for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Attempt to gracefully shut down the server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server stopped")
}
