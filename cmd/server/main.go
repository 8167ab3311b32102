package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farelink/service-estimates/internal/application"
	"github.com/farelink/service-estimates/internal/config"
	"github.com/farelink/service-estimates/internal/credentials"
	"github.com/farelink/service-estimates/internal/directory"
	"github.com/farelink/service-estimates/internal/events"
	"github.com/farelink/service-estimates/internal/handler"
	"github.com/farelink/service-estimates/internal/health"
	"github.com/farelink/service-estimates/internal/logger"
	"github.com/farelink/service-estimates/internal/provider"
	"github.com/farelink/service-estimates/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-estimates")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-estimates",
		zap.String("port", cfg.Port),
		zap.Int("providers", len(cfg.Providers)),
	)

	// Connect to Redis (continuation cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	pingCancel()
	defer func() { _ = redisClient.Close() }()

	continuationStore := repository.NewRedisContinuationStore(redisClient)

	// Initialize Kafka producer
	producer := events.NewProducer(cfg.Kafka.Brokers, log)
	defer func() { _ = producer.Close() }()

	// Build the provider registry from configuration
	registry := provider.NewRegistry()
	for _, p := range cfg.Providers {
		registry.Register(p.ID, provider.NewHTTPClient(p.ID, p.BaseURL))
	}

	// Initialize credential provider
	credentialProvider := credentials.NewHTTPProvider(cfg.IdentityURL)

	// Initialize the estimate service
	estimateService := application.NewEstimateService(
		registry,
		credentialProvider,
		continuationStore,
		producer,
		log,
	)

	// Register providers with the service directory in the background
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registrar := directory.NewRegistrar(directory.NewHTTPClient(cfg.DirectoryURL), cfg.Providers, log)
	go registrar.RegisterAll(ctx)

	// Initialize HTTP handlers
	estimateHandler := handler.NewEstimateHandler(estimateService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(handler.RecoveryMiddleware(log))
	router.Use(handler.LoggerMiddleware(log))
	router.Use(handler.RequestIDMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(continuationStore, "service-estimates")
	healthHandler.RegisterRoutes(router)

	// Register routes
	estimateHandler.RegisterRoutes(&router.RouterGroup)

	// Create HTTP server. No write timeout: the estimate stream stays open
	// for as long as the provider fan-out takes.
	srv := &http.Server{
		Addr:        cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-estimates...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-estimates stopped")
}
