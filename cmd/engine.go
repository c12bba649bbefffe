package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/facegate/internal/auth"
	"github.com/kozaktomas/facegate/internal/config"
	"github.com/kozaktomas/facegate/internal/database"
	"github.com/kozaktomas/facegate/internal/database/memory"
	"github.com/kozaktomas/facegate/internal/database/postgres"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/logging"
	"github.com/kozaktomas/facegate/internal/metrics"
	"github.com/kozaktomas/facegate/internal/registry"
)

// engine is the wired set of components shared by all commands.
type engine struct {
	cfg           *config.Config
	logger        *slog.Logger
	promRegistry  *prometheus.Registry
	metrics       *metrics.Metrics
	registry      *registry.Registry
	matcher       *facematch.Matcher
	authenticator *auth.Authenticator
	pool          *postgres.Pool
}

// loadConfig reads and validates configuration, applying persistent flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Load()
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openEngine connects the configured store and builds registry, matcher and authenticator.
// requireDatabase rejects the in-memory store, which would not outlive the command.
func openEngine(ctx context.Context, cmd *cobra.Command, requireDatabase bool) (*engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if requireDatabase && cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}
	slog.SetDefault(logger)

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mt := metrics.New(promRegistry)

	e := &engine{
		cfg:          cfg,
		logger:       logger,
		promRegistry: promRegistry,
		metrics:      mt,
	}

	var store database.IdentityWriter
	if cfg.Database.URL != "" {
		pool, err := postgres.Open(ctx, &cfg.Database, postgres.WithLogger(logger.With("component", "postgres")))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		e.pool = pool
		store = postgres.NewIdentityRepository(pool)
		logger.Info("using PostgreSQL identity store")
	} else {
		store = memory.NewStore()
		logger.Info("using in-memory identity store")
	}

	metric := facematch.Metric{Normalization: cfg.Matching.Normalization}
	opts := []registry.Option{
		registry.WithMetric(metric),
		registry.WithDimension(cfg.Matching.Dim),
		registry.WithLogger(logger.With("component", "registry")),
		registry.WithMetrics(mt),
	}
	if cfg.HNSW.Enabled {
		opts = append(opts, registry.WithIndex(database.NewIdentityIndex()))
	}
	e.registry = registry.New(store, opts...)

	if cfg.HNSW.Enabled {
		if err := e.registry.LoadIndex(ctx, cfg.HNSW.IndexPath); err != nil {
			logger.Warn("identity index unavailable, nearest queries will scan", "error", err)
		}
	}

	policy, err := facematch.ParsePolicy(cfg.Matching.Policy)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.matcher = facematch.NewMatcher(e.registry,
		facematch.WithMetric(metric),
		facematch.WithPolicy(policy),
		facematch.WithDimension(cfg.Matching.Dim),
		facematch.WithLogger(logger.With("component", "matcher")),
		facematch.WithMetrics(mt),
	)
	e.authenticator = auth.New(e.matcher,
		auth.WithMinConfidence(cfg.Auth.MinDetectionConfidence),
		auth.WithThreshold(cfg.Auth.MatchThreshold),
		auth.WithLogger(logger.With("component", "auth")),
		auth.WithMetrics(mt),
	)

	if n, err := e.registry.Count(ctx); err == nil {
		mt.SetRegistrySize(n)
	}
	return e, nil
}

// saveIndex persists the HNSW index when a path is configured.
func (e *engine) saveIndex() {
	if !e.cfg.HNSW.Enabled || e.cfg.HNSW.IndexPath == "" {
		return
	}
	if err := e.registry.SaveIndex(e.cfg.HNSW.IndexPath); err != nil {
		e.logger.Warn("failed to save identity index", "error", err)
		return
	}
	e.logger.Info("identity index saved", "path", e.cfg.HNSW.IndexPath)
}

// Close releases the database pool.
func (e *engine) Close() {
	if e.pool != nil {
		if err := e.pool.Close(); err != nil {
			e.logger.Warn("closing database", "error", err)
		}
	}
}
