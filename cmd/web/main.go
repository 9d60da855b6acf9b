package main

import (
	"context"
	"log/slog"
	"os"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"addr", cfg.Address(),
		"sample_size", cfg.Generator.SampleSize,
		"seed", cfg.Generator.Seed,
	)

	if err := server.Run(context.Background(), cfg, logger, os.Getenv("SALES_INPUT_CSV")); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
