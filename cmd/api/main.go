package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/adapter/handler"
	"github.com/srgjo27/nft_ticket/internal/adapter/minting"
	"github.com/srgjo27/nft_ticket/internal/adapter/repository/postgres"
	"github.com/srgjo27/nft_ticket/internal/core/services"
	"github.com/srgjo27/nft_ticket/internal/platform/clock"
	"github.com/srgjo27/nft_ticket/internal/platform/config"
	"github.com/srgjo27/nft_ticket/internal/platform/database"
	"github.com/srgjo27/nft_ticket/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.DB, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrations applied")

	log.Info("connecting to redis", zap.String("addr", cfg.Redis.Addr()))
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr(),
		DB:   cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	log.Info("redis connected")

	gateway, err := minting.NewGatewayClient(cfg.Mint.GatewayURL, cfg.Mint.Timeout, log)
	if err != nil {
		return err
	}

	clk := clock.NewSystem()

	pendingRepo := postgres.NewPendingEventRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)

	activationService := services.NewActivationService(pendingRepo, eventRepo, gateway, clk, log,
		services.WithActivationLease(cfg.ActivationLease))
	mintingService := services.NewMintingService(eventRepo, ticketRepo, gateway, redisClient, clk, log,
		services.WithMintRetry(cfg.Mint.MaxAttempts, cfg.Mint.RetryBackoff),
		services.WithMintBatchSize(cfg.Mint.BatchSize),
		services.WithMintLease(cfg.Mint.Lease))
	purchaseService := services.NewPurchaseService(eventRepo, ticketRepo, redisClient, clk, log)
	queryService := services.NewQueryService(eventRepo, ticketRepo, redisClient, clk, log, cfg.AvailabilityTTL)

	router := handler.NewRouter(
		handler.NewTicketHandler(activationService, mintingService, purchaseService, log),
		handler.NewEventHandler(queryService, log),
		log,
	)

	go mintingService.RunReconciler(ctx, cfg.Mint.ReconcileInterval)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server startup failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server exiting")
	return nil
}
