package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hustle/internal/config"
	"hustle/internal/ledger"
)

// The worker rotates compressed archives of the ledger documents. The
// economy itself needs no ticker: regeneration and cooldowns are computed
// lazily from persisted clocks.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadWorkerFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	runOnce := strings.EqualFold(strings.TrimSpace(os.Getenv("HUSTLE_WORKER_RUN_ONCE")), "true")
	if runOnce {
		if err := archiveOnce(cfg, logger); err != nil {
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.ArchiveEvery)
	defer ticker.Stop()

	logger.Info("worker started", "archive_every", cfg.ArchiveEvery.String(), "archive_dir", cfg.ArchiveDir)
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := archiveOnce(cfg, logger); err != nil {
				continue
			}
		}
	}
}

func archiveOnce(cfg config.WorkerConfig, logger *slog.Logger) error {
	dir, err := ledger.Archive(cfg.DataDir, cfg.ArchiveDir, time.Now().UTC())
	if err != nil {
		logger.Error("archive failed", "err", err)
		return err
	}
	if dir == "" {
		logger.Info("nothing to archive yet", "data_dir", cfg.DataDir)
		return nil
	}
	logger.Info("ledger archived", "dir", dir)
	return nil
}
