package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/atmowatch/atmowatch/internal/adapters"
	"github.com/atmowatch/atmowatch/internal/controllers/restserver"
	"github.com/atmowatch/atmowatch/internal/features"
	"github.com/atmowatch/atmowatch/internal/forecast"
	"github.com/atmowatch/atmowatch/internal/log"
	"github.com/atmowatch/atmowatch/internal/managers"
	"github.com/atmowatch/atmowatch/internal/registry"
	"github.com/atmowatch/atmowatch/internal/storage"
	"github.com/atmowatch/atmowatch/internal/train"
	"github.com/atmowatch/atmowatch/pkg/config"
)

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
	// sources are injected by the caller; nil entries come from disabled
	// source configs.
	sources []adapters.Adapter
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, sources []adapters.Adapter, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		sources:        sources,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	cfg.ApplyDefaults()

	if cfg.Storage.TimescaleDB == nil || cfg.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("storage.timescaledb.connection_string is required")
	}
	store, err := storage.New(ctx, cfg.Storage.TimescaleDB.ConnectionString, cfg.Ingest.BatchSize)
	if err != nil {
		return err
	}

	assembler := features.New(
		time.Duration(cfg.Features.AsofToleranceMinutes)*time.Minute,
		cfg.Features.SpatialRoundDeg,
		cfg.Features.FireRadiusKM,
		a.logger,
	)

	reg := registry.New()
	if cfg.Registry.SnapshotPath != "" {
		if err := reg.Load(cfg.Registry.SnapshotPath); err != nil {
			log.Warnf("could not hydrate model registry: %v", err)
		} else if reg.Len() > 0 {
			log.Infof("model registry hydrated with %d entries", reg.Len())
		}
	}

	trainer := train.New(store, assembler, reg, train.Config{
		Horizons:      cfg.Train.Horizons,
		SplitFraction: cfg.Train.SplitFraction,
		MinSamples:    cfg.Train.MinSamples,
		LookbackDays:  cfg.Train.LookbackDays,
		Pollutants:    cfg.Train.Pollutants,
		SnapshotPath:  cfg.Registry.SnapshotPath,
	}, a.logger)

	engine := forecast.New(store, assembler, reg, cfg.Forecast.DecayBase, a.logger)

	ingest := managers.NewIngestManager(a.sources, store, cfg.Ingest.WindowHours, a.logger)

	rest := restserver.NewController(ctx, &wg, cfg.HTTP, store, ingest, trainer, engine, reg, a.logger)
	if err := rest.StartController(); err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
