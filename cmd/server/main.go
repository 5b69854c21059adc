package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aims/backend/config"
	httpDelivery "github.com/aims/backend/internal/delivery/http"
	"github.com/aims/backend/internal/domain"
	"github.com/aims/backend/internal/infrastructure/cache"
	"github.com/aims/backend/internal/infrastructure/inference"
	"github.com/aims/backend/internal/infrastructure/metrics"
	"github.com/aims/backend/internal/infrastructure/regressor"
	"github.com/aims/backend/internal/infrastructure/regressor/tflite"
	"github.com/aims/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting AIMS Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Inference: %s (mode: %s)", cfg.Inference.BaseURL, cfg.Inference.Mode)

	// Initialize infrastructure dependencies
	serviceMetrics, err := metrics.NewMetrics()
	if err != nil {
		log.Fatalf("Failed to register metrics: %v", err)
	}

	memoryCache := cache.NewMemoryCache(cache.Options{
		CleanupInterval: cfg.Cache.CleanupInterval,
		MaxEntries:      cfg.Cache.MaxEntries,
	})
	defer memoryCache.Close()
	log.Printf("Cache TTL: %s (max %d entries)", cfg.Cache.TTL, cfg.Cache.MaxEntries)

	runtimeClient := inference.NewClient(inference.ClientConfig{
		BaseURL:             cfg.Inference.BaseURL,
		Timeout:             cfg.Inference.Timeout,
		RequestsPerSecond:   cfg.Inference.RequestsPerSecond,
		Burst:               cfg.Inference.Burst,
		TopK:                cfg.Inference.TopK,
		ConfidenceThreshold: cfg.Inference.ConfidenceThreshold,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		runtimeClient.SetDebug(true)
		log.Printf("Inference client debug mode enabled")
	}

	// A missing model leaves the forecast endpoints answering 503
	salesModel, err := openRegressor(cfg.Regressor)
	if err != nil {
		log.Printf("WARNING: Sales model not loaded: %v", err)
		salesModel = nil
	}
	if salesModel != nil {
		defer salesModel.Close()
		info := salesModel.Info()
		log.Printf("Sales model: %s from %s (%d features)", info.Type, info.ModelPath, info.NFeatures)
	}

	// Initialize usecase layer
	visionService := usecase.NewVisionService(
		runtimeClient,
		runtimeClient,
		memoryCache,
		serviceMetrics,
		usecase.VisionServiceConfig{
			Mode:               cfg.Inference.Mode,
			CacheTTL:           cfg.Cache.TTL,
			MaxUploadBytes:     cfg.Server.MaxUploadBytes,
			EnableDebugLogging: cfg.Matching.EnableDebugLogging,
		},
	)
	forecastService := usecase.NewForecastService(salesModel, serviceMetrics)

	log.Printf("Matching: debug=%v", cfg.Matching.EnableDebugLogging)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(visionService, forecastService, httpDelivery.HandlerConfig{
		TrainingDataDir:    cfg.Training.DataDir,
		Runtime:            runtimeClient,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, serviceMetrics)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}

// openRegressor loads the configured sales model. Type "none" returns a nil model.
func openRegressor(cfg config.RegressorConfig) (domain.Regressor, error) {
	switch cfg.Type {
	case regressor.TypeLinear:
		model, err := regressor.LoadLinear(cfg.ModelPath)
		if err != nil {
			return nil, err
		}
		return model, nil
	case tflite.Type:
		model, err := tflite.Load(cfg.ModelPath, cfg.Threads, usecase.FeatureNames())
		if err != nil {
			return nil, err
		}
		return model, nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown regressor type %q", cfg.Type)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
