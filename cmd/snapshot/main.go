package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Dev-Ahmed-Alaa/wallet-service/config"
	pgStorage "github.com/Dev-Ahmed-Alaa/wallet-service/internal/adapter/storage/postgres"
	"github.com/Dev-Ahmed-Alaa/wallet-service/internal/service"
	"github.com/Dev-Ahmed-Alaa/wallet-service/pkg/logger"
)

// One-shot job: writes a balance snapshot row for every wallet, then exits.
// Intended to run from cron or a Kubernetes CronJob.
func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	walletRepo := pgStorage.NewWalletRepo(pool)
	snapshotRepo := pgStorage.NewSnapshotRepo(pool)
	snapshotSvc := service.NewSnapshotService(walletRepo, snapshotRepo, log)

	count, err := snapshotSvc.SnapshotBalances(ctx)
	if err != nil {
		log.Fatal().Err(err).Int("snapshotted", count).Msg("Balance snapshot run failed")
	}

	log.Info().Int("snapshotted", count).Msg("Balance snapshot run complete")
}
