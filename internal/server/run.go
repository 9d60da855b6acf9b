package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sales-dashboard/internal/charts"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/kpi"
	"sales-dashboard/internal/services"
)

const (
	generateTimeout = 30 * time.Second
	janitorInterval = time.Minute
)

// Bootstrap builds the analytics service for cfg and fills its base table,
// from inputCSV when set, otherwise from the generator.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger, inputCSV string) (*services.Analytics, error) {
	analytics := services.NewAnalytics(
		services.WithParams(cfg.GeneratorParams()),
		services.WithKPIOptions(cfg.KPIOptions()),
		services.WithSessionTTL(cfg.Dashboard.SessionTTL),
		services.WithLogger(logger),
	)

	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	if inputCSV != "" {
		if err := analytics.LoadFromCSV(ctx, inputCSV); err != nil {
			return nil, err
		}
		return analytics, nil
	}
	if err := analytics.Generate(ctx); err != nil {
		return nil, err
	}
	return analytics, nil
}

// RenderCharts writes the static PNG set for the base table into the
// configured charts directory.
func RenderCharts(ctx context.Context, cfg *config.Config, analytics *services.Analytics, logger *slog.Logger) ([]string, error) {
	snapshot, err := analytics.Snapshot(ctx, "", kpi.Filter{})
	if err != nil {
		return nil, fmt.Errorf("compute snapshot: %w", err)
	}
	return charts.NewRenderer(logger).Render(ctx, snapshot, cfg.Dashboard.ChartsDir)
}

// Run serves the dashboard until ctx is cancelled or a shutdown signal
// arrives. A failed chart render is logged and does not stop the server.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, inputCSV string) error {
	analytics, err := Bootstrap(ctx, cfg, logger, inputCSV)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	analytics.StartJanitor(janitorInterval)

	if cfg.Dashboard.ChartsDir != "" {
		if _, err := RenderCharts(ctx, cfg, analytics, logger); err != nil {
			logger.Warn("static charts not rendered", "error", err)
		}
	}

	return New(cfg, analytics, logger).ListenAndServe(ctx)
}
