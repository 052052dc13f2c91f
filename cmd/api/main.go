package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/facegate/facegate/internal/api"
	"github.com/facegate/facegate/internal/backend"
	"github.com/facegate/facegate/internal/binding"
	"github.com/facegate/facegate/internal/bus"
	"github.com/facegate/facegate/internal/callback"
	"github.com/facegate/facegate/internal/config"
	"github.com/facegate/facegate/internal/database"
	"github.com/facegate/facegate/internal/pipeline"
	"github.com/facegate/facegate/internal/registry"
	"github.com/facegate/facegate/internal/settings"
	"github.com/facegate/facegate/internal/store"
	"github.com/facegate/facegate/internal/vision"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Facegate API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	pool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Shared keyed state
	kv := store.NewPGStore(pool)

	// Collaborator clients
	backendClient := backend.NewClient(cfg.HTTPTimeout, logger)
	visionClient := vision.NewClient(vision.Config{
		RecognizerURL: cfg.RecognizerURL,
		LivenessURL:   cfg.LivenessCheckURL,
		Timeout:       cfg.HTTPTimeout,
	})

	// Domain services
	settingsService := settings.NewService(kv)
	deviceRepo := registry.NewDeviceRepository(pool)
	deviceService := registry.NewService(deviceRepo, backendClient, logger)
	directory := binding.NewDirectory(kv, deviceRepo, logger)
	fanout := callback.NewFanout(kv, cfg.HTTPTimeout, logger)

	// Pipeline and orchestrator
	messageBus := bus.New(bus.Config{
		Broker:          cfg.MQTTBroker,
		ClientID:        cfg.MQTTClientID,
		DetectTopic:     cfg.MQTTDetectTopic,
		RecognizedTopic: cfg.MQTTRecognizedTopic,
	}, logger)

	pipe := pipeline.New(visionClient, backendClient, fanout, pipeline.Config{
		GroupSyncURL:      cfg.GroupSyncURL,
		LivenessThreshold: cfg.LivenessThreshold,
	}, logger)
	orchestrator := pipeline.NewOrchestrator(pipe, directory, deviceRepo, settingsService, messageBus, logger)

	// Message bus: consume detections, republish matches
	if err := messageBus.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	defer messageBus.Disconnect()

	if err := messageBus.Subscribe(ctx, orchestrator); err != nil {
		return fmt.Errorf("failed to subscribe to detections: %w", err)
	}

	// HTTP surface
	router := api.NewRouter(logger, &api.Dependencies{
		DB:        pool,
		Directory: directory,
		Events:    orchestrator,
		Devices:   deviceService,
		Settings:  settingsService,
		Callbacks: fanout,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")

	return nil
}
