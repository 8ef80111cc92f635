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

	"payment-webhook-gateway/config"
	httpHandler "payment-webhook-gateway/internal/adapter/http/handler"
	pgStorage "payment-webhook-gateway/internal/adapter/storage/postgres"
	redisStorage "payment-webhook-gateway/internal/adapter/storage/redis"
	"payment-webhook-gateway/internal/app"
	"payment-webhook-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Payment Webhook Gateway")

	if cfg.Webhook.Secret == "" {
		log.Warn().Msg("Webhook secret is empty, every signed request will be rejected")
	}

	ctx := context.Background()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	c, err := app.Build(cfg, pool, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire services")
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	defer stopWorker()
	if cfg.Reconciler.Enabled {
		go c.Reconciler.Start(workerCtx)
	} else {
		log.Info().Msg("Scheduled reconciliation disabled")
	}

	deps := httpHandler.RouterDeps{
		WebhookSvc:     c.WebhookSvc,
		CheckoutSvc:    c.CheckoutSvc,
		TokenSvc:       c.TokenSvc,
		AuditSvc:       c.AuditSvc,
		RateLimitStore: c.RateLimitStore,
		HealthCheckers: c.HealthCheckers,
		Webhook:        cfg.Webhook,
		Logger:         log,
	}
	if cfg.Admin.JWTSecret != "" {
		deps.Trigger = c.Reconciler
	} else {
		log.Warn().Msg("Admin JWT secret is empty, manual reconciliation endpoint disabled")
	}
	router := httpHandler.SetupRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
