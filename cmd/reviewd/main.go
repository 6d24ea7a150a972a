package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bibbank/bib/services/review-service/internal/application/usecase"
	"github.com/bibbank/bib/services/review-service/internal/domain/port"
	"github.com/bibbank/bib/services/review-service/internal/domain/service"
	"github.com/bibbank/bib/services/review-service/internal/infrastructure/artifact"
	"github.com/bibbank/bib/services/review-service/internal/infrastructure/config"
	"github.com/bibbank/bib/services/review-service/internal/infrastructure/embedding"
	"github.com/bibbank/bib/services/review-service/internal/infrastructure/sentiment"
	"github.com/bibbank/bib/services/review-service/internal/presentation/rest"
	"github.com/bibbank/bib/services/review-service/pkg/observability"
)

const serviceName = "review-service"

func main() {
	if err := run(); err != nil {
		slog.Error("review-service exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})

	logger.Info("starting review-service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
	)

	// Initialize tracing.
	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracer(ctx, observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    cfg.OTLPEndpoint,
			Insecure:    true,
		})
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }() //nolint:errcheck // best-effort tracer shutdown
		}
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: serviceName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()
	meter := meterProvider.Meter(serviceName)

	// Embedding runtime client.
	embeddingClient, err := embedding.NewClient(embedding.ClientConfig{
		BaseURL:   cfg.EmbeddingURL,
		ModelID:   cfg.EmbeddingModelID,
		MaxTokens: cfg.EmbeddingMaxTokens,
		Timeout:   cfg.EmbeddingTimeout,
	}, meter, logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding client: %w", err)
	}

	// Load model artifacts. Any failure here is fatal.
	loadCtx, loadCancel := context.WithTimeout(ctx, 2*cfg.EmbeddingTimeout)
	defer loadCancel()

	artifacts, err := artifact.Load(loadCtx, artifact.Paths{
		Scaler:     cfg.ScalerPath,
		Classifier: cfg.ClassifierPath,
	}, func(ctx context.Context) (port.Embedder, error) {
		return embeddingClient.Bind(ctx)
	}, logger)
	if err != nil {
		return err
	}

	// Wire domain services.
	scorer, err := service.NewReviewScorer(
		artifacts.Schema,
		artifacts.Embedder,
		sentiment.NewVaderAnalyzer(),
		artifacts.Scaler,
		artifacts.Classifier,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to build scoring pipeline: %w", err)
	}

	// Wire use cases.
	predictReviewUC, err := usecase.NewPredictReview(scorer, meter, logger)
	if err != nil {
		return fmt.Errorf("failed to create predict use case: %w", err)
	}

	// HTTP server.
	healthHandler := rest.NewHealthHandler(map[string]rest.ReadinessCheck{
		"embedding_runtime": func(ctx context.Context) error {
			_, err := embeddingClient.Info(ctx)
			return err
		},
	}, logger)
	predictionHandler := rest.NewPredictionHandler(predictReviewUC, cfg.MaxRequestBytes, logger)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: rest.NewRouter(
			rest.RouterConfig{AllowedOrigins: cfg.AllowedOrigins()},
			healthHandler,
			predictionHandler,
			metricsHandler,
			logger,
		),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server.
	errCh := make(chan error, 1)

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("review-service started",
		"http_address", cfg.HTTPAddress(),
		"features", artifacts.Schema.Len(),
	)

	// Wait for shutdown signal.
	var serveErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case serveErr = <-errCh:
		logger.Error("server error", "error", serveErr)
	}

	// Graceful shutdown.
	logger.Info("shutting down review-service")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("review-service stopped")
	return serveErr
}
