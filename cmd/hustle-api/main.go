package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hustle/internal/api"
	"hustle/internal/config"
	"hustle/internal/econ"
	"hustle/internal/ledger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadAPIFromEnv()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	catalog := econ.DefaultCatalog()
	if cfg.CatalogPath != "" {
		var err error
		catalog, err = econ.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			logger.Error("load job catalog failed", "path", cfg.CatalogPath, "err", err)
			os.Exit(1)
		}
	}

	store := ledger.NewFileStore(cfg.DataDir, logger)
	econSvc := econ.NewService(store, catalog, logger)

	server := api.New(cfg, logger, econSvc)
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("hustle api listening", "addr", cfg.Addr, "data_dir", cfg.DataDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server failed", "err", err)
		os.Exit(1)
	}
}
