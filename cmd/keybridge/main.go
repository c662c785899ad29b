package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/DanielPopoola/key-request-bridge/internal/api"
	"github.com/DanielPopoola/key-request-bridge/internal/application/services"
	"github.com/DanielPopoola/key-request-bridge/internal/config"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/broker"
	"github.com/DanielPopoola/key-request-bridge/internal/infrastructure/persistence/memory"
	"github.com/DanielPopoola/key-request-bridge/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/key-request-bridge/internal/interfaces/rest/middleware"
	"github.com/DanielPopoola/key-request-bridge/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting key request bridge",
		"env", cfg.Primary.Env,
		"port", cfg.Server.Port,
		"broker", cfg.Broker.Driver,
		"log_level", cfg.Logger.Level,
	)

	ctx := context.Background()
	b, err := broker.Open(ctx, cfg.Broker, logger)
	if err != nil {
		logger.Error("failed to connect to broker", "driver", cfg.Broker.Driver, "error", err)
		os.Exit(1)
	}

	store := memory.NewResultStore()

	publisher := broker.NewRequestPublisher(
		broker.NewRetryPublisher(b, cfg.Retry),
		cfg.Broker.RequestChannel,
	)

	consumer := worker.NewResponseConsumer(
		b,
		cfg.Broker.ResponseChannel,
		store,
		cfg.Broker.ConsumerConcurrency,
		logger,
	)

	requestService := services.NewRequestService(publisher, logger)
	resultService := services.NewResultService(store, logger)
	healthService := services.NewHealthService(b, store, consumer, cfg.Broker.ConnectTimeout)

	h := handlers.NewHandlers(requestService, resultService, healthService, logger)

	doc, err := api.Spec()
	if err != nil {
		logger.Error("failed to load openapi document", "error", err)
		os.Exit(1)
	}
	validate, err := middleware.OpenAPIValidator(doc, logger)
	if err != nil {
		logger.Error("failed to build request validator", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	api.RegisterDocsRoutes(mux)
	h.RegisterRoutes(mux)

	handler := validate(mux)
	handler = middleware.Recovery(logger)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Timeout(cfg.Server.WriteTimeout)(handler)

	server := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	defer cancelConsumer()

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Start(consumerCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case sig := <-quit:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErr:
		logger.Error("server error", "error", err)
		exitCode = 1
	case err := <-consumerDone:
		logger.Error("response consumer stopped", "error", err)
		consumerDone <- err
		exitCode = 1
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	cancelConsumer()
	select {
	case err := <-consumerDone:
		if err != nil {
			logger.Error("response consumer exited with error", "error", err)
		}
	case <-shutdownCtx.Done():
		logger.Error("response consumer did not stop in time")
	}

	if err := b.Close(); err != nil {
		logger.Error("failed to close broker", "error", err)
	}

	logger.Info("server exited")
	os.Exit(exitCode)
}
