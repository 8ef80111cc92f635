// Command reconcile runs a single reconciliation pass and exits. It takes the
// same Redis lock as the API's scheduled worker, so it is safe to run from
// cron alongside a live deployment.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"payment-webhook-gateway/config"
	pgStorage "payment-webhook-gateway/internal/adapter/storage/postgres"
	redisStorage "payment-webhook-gateway/internal/adapter/storage/redis"
	"payment-webhook-gateway/internal/app"
	"payment-webhook-gateway/pkg/apperror"
	"payment-webhook-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	c, err := app.Build(cfg, pool, rdb, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire services")
	}

	summary, err := c.Reconciler.RunOnce(ctx)
	if apperror.KindOf(err) == apperror.KindReconcileInProgress {
		log.Info().Msg("Another reconciliation run holds the lock, nothing to do")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Reconciliation failed")
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
