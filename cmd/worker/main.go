package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fleetops/optimizer/internal/app"
	"github.com/fleetops/optimizer/pkg/config"
	"github.com/fleetops/optimizer/pkg/logger"
	"github.com/fleetops/optimizer/pkg/metrics"
	"github.com/fleetops/optimizer/pkg/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger.InitWithConfig(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		FilePath:   cfg.Log.FilePath,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
		Compress:   cfg.Log.Compress,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := telemetry.Init(ctx, telemetry.Config{
			Enabled:     cfg.Tracing.Enabled,
			Endpoint:    cfg.Tracing.Endpoint,
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Environment: cfg.App.Environment,
			SampleRate:  cfg.Tracing.SampleRate,
		})
		if err != nil {
			logger.Log.Warn("failed to init telemetry", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Log.Warn("failed to shutdown telemetry", "error", err)
				}
			}()
		}
	}

	if cfg.Metrics.Enabled {
		metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
		go func() {
			if err := metrics.StartMetricsServer(cfg.Metrics.Port); err != nil {
				logger.Log.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	appCtx, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to wire application", "error", err)
	}
	defer appCtx.Close()

	logger.Info("starting optimizer worker",
		"max_workers", cfg.Worker.MaxWorkers,
		"routing_provider", cfg.Routing.Provider,
		"environment", cfg.App.Environment,
	)

	appCtx.Orchestrator.Run(ctx)
	logger.Info("optimizer worker stopped")
}
