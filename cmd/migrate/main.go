package main

import (
	"fmt"
	"os"

	"payment-webhook-gateway/config"
	pgStorage "payment-webhook-gateway/internal/adapter/storage/postgres"
	"payment-webhook-gateway/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	if err := pgStorage.Migrate(cfg.Database); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
	log.Info().Str("dbname", cfg.Database.DBName).Msg("Migrations applied")
}
