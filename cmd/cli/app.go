package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/flavorlab/nutrigraph"
	"github.com/flavorlab/nutrigraph/pkg/cache"
	"github.com/flavorlab/nutrigraph/pkg/config"
	"github.com/flavorlab/nutrigraph/pkg/loader"
	nglogger "github.com/flavorlab/nutrigraph/pkg/logger"
	"github.com/flavorlab/nutrigraph/pkg/snapshot"
	"github.com/flavorlab/nutrigraph/pkg/store"
	"github.com/flavorlab/nutrigraph/pkg/telemetry"
	"github.com/flavorlab/nutrigraph/pkg/tracing"
)

// app bundles everything a command needs once the store is populated.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *nutrigraph.Client
	snap     *snapshot.Snapshotter
	parquet  *telemetry.ParquetHandler
	shutdown tracing.ShutdownFunc
}

// bootstrap loads configuration, wires logging, tracing and the cache, and
// fills the store from the snapshot or the configured seed sources.
func bootstrap(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrapWith(ctx, cfg)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func bootstrapWith(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	a.logger = a.newLogger()

	shutdown, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return nil, err
	}
	a.shutdown = shutdown

	st := store.New(a.logger)
	a.client = nutrigraph.NewClient(st, nutrigraph.ConfigFromEngine(cfg.Engine), a.logger)

	if cfg.Cache.Enabled {
		rc, err := cache.NewRedisCache(ctx, cache.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      time.Duration(cfg.Cache.TTL) * time.Second,
			Prefix:   cfg.Cache.Prefix,
		}, a.logger)
		if err != nil {
			a.logger.Warn("Statistics cache unavailable, continuing without it", "addr", cfg.Cache.Addr, "error", err)
		} else {
			a.client.SetStatsCache(rc)
		}
	}

	if err := a.populate(ctx); err != nil {
		a.close(ctx)
		return nil, err
	}
	return a, nil
}

func (a *app) newLogger() *slog.Logger {
	base := nglogger.NewLogger(os.Stderr, nglogger.ParseLevel(a.cfg.Log.Level), a.cfg.Log.Format)
	if a.cfg.Telemetry.ParquetPath == "" {
		return base
	}
	h, err := telemetry.NewParquetHandler(base.Handler(), a.cfg.Telemetry.ParquetPath)
	if err != nil {
		base.Warn("Error tracking disabled", "error", err)
		return base
	}
	a.parquet = h
	return slog.New(h)
}

// populate restores the snapshot when one exists and otherwise loads the
// seed sources, saving a fresh snapshot afterwards when enabled.
func (a *app) populate(ctx context.Context) error {
	st := a.client.Store()
	if a.cfg.Snapshot.Enabled {
		snap, err := snapshot.Open(a.cfg.Snapshot.Path, a.logger)
		if err != nil {
			return err
		}
		a.snap = snap

		info, err := snap.Restore(ctx, st)
		switch {
		case err == nil:
			a.logger.Info("Restored snapshot", "entities", info.Entities,
				"relationships", info.Relationships, "saved_at", info.SavedAt)
			return nil
		case !errors.Is(err, snapshot.ErrNoSnapshot):
			return fmt.Errorf("failed to restore snapshot: %w", err)
		}
	}

	if err := a.loadSources(ctx); err != nil {
		return err
	}
	if a.snap != nil {
		if _, err := a.snap.Save(ctx, st); err != nil {
			a.logger.Warn("Failed to save snapshot", "error", err)
		}
	}
	return nil
}

func (a *app) loadSources(ctx context.Context) error {
	sources, err := loader.SourcesFromConfig(a.cfg, a.logger)
	if err != nil {
		return err
	}
	defer loader.CloseSources(ctx, sources)
	if len(sources) == 0 {
		a.logger.Warn("No seed sources configured; starting with an empty store")
		return nil
	}

	report, err := a.client.Load(ctx, sources...)
	if err != nil {
		return err
	}
	for _, ve := range append(report.EntityErrors, report.RelationshipErrors...) {
		a.logger.Warn("Rejected record", "index", ve.Index, "id", ve.ID, "field", ve.Field, "reason", ve.Reason())
	}
	a.logger.Info("Loading complete",
		"entities", report.EntitiesLoaded,
		"relationships", report.RelationshipsLoaded,
		"rejected", report.Rejected(),
		"duration", report.Duration)
	return nil
}

func (a *app) close(ctx context.Context) {
	if err := a.client.Close(ctx); err != nil {
		a.logger.Warn("Failed to close client", "error", err)
	}
	if a.snap != nil {
		if err := a.snap.Close(); err != nil {
			a.logger.Warn("Failed to close snapshot", "error", err)
		}
	}
	if a.shutdown != nil {
		if err := a.shutdown(ctx); err != nil {
			a.logger.Warn("Failed to flush traces", "error", err)
		}
	}
	if a.parquet != nil {
		_ = a.parquet.Close()
	}
}
