package main

import (
	"context"
	"time"

	"github.com/joho/godotenv"

	"bloodbank/internal/adapter/repo"
	"bloodbank/internal/infra"
)

// One-shot sweep removing audit entries older than the retention window.
func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	cutoff := time.Now().UTC().Add(-cfg.AuditRetention)
	removed, err := repo.NewAuditRepository(dbpool).DeleteOlderThan(ctx, cutoff)
	if err != nil {
		logger.Fatal().Err(err).Msg("audit retention sweep failed")
	}

	logger.Info().
		Int64("removed", removed).
		Time("cutoff", cutoff).
		Msg("audit retention sweep completed")
}
