// Package main is the entry point for cdnflow-server.
//
// cdnflow-server exposes a minimum-cost maximum-flow solver specialized
// for multi-layer CDN routing over a plain HTTP/JSON API: scenario
// storage, solving, and Excel/PDF report generation.
package main

import (
	"context"
	"log"
	"time"

	"cdnflow/internal/cache"
	"cdnflow/internal/httpapi"
	"cdnflow/internal/metrics"
	"cdnflow/internal/service"
	"cdnflow/internal/store"
	"cdnflow/internal/telemetry"
	pkgcache "cdnflow/pkg/cache"
	"cdnflow/pkg/config"
	"cdnflow/pkg/logger"
	"cdnflow/pkg/passhash"
)

func main() {
	cfg, err := config.LoadWithServiceDefaults("cdnflow-server", 8080)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
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

	ctx := context.Background()

	var tp *telemetry.Provider
	if cfg.Tracing.Enabled {
		tp, err = telemetry.Init(ctx, telemetry.Config{
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
			logger.Log.Info("telemetry initialized", "endpoint", cfg.Tracing.Endpoint)
		}
	}

	metrics.InitMetrics(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)

	db, err := store.NewPostgresDB(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	migrator := store.NewMigrator(db.Pool())
	if err := migrator.Up(ctx); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var solverCache *cache.SolverCache
	if cfg.Cache.Enabled {
		cacheOpts := pkgcache.FromConfig(&cfg.Cache)
		baseCache, err := pkgcache.New(cacheOpts)
		if err != nil {
			logger.Log.Warn("failed to create cache, falling back to in-memory cache", "error", err)
		} else {
			solverCache = cache.NewSolverCache(baseCache, cfg.Cache.DefaultTTL)
			logger.Log.Info("solver cache initialized", "driver", cfg.Cache.Driver, "ttl", cfg.Cache.DefaultTTL)
		}
	}
	if solverCache == nil {
		// The orchestration layer always dereferences a cache; an
		// unconfigured/unreachable backend still gets an in-process one
		// rather than threading a nil check through every call site.
		solverCache = cache.NewSolverCache(pkgcache.NewMemoryCache(pkgcache.DefaultOptions()), cfg.Cache.DefaultTTL)
	}

	scenarios := store.NewPostgresStore(db)
	solves := store.NewSolveStore(db)

	solverSvc := service.NewSolverService(cfg.App.Version, logger.Log, solverCache, solves, service.DefaultServiceConfig())

	jwtManager := passhash.NewJWTManager(&passhash.JWTConfig{
		SecretKey:          cfg.HTTP.JWTSecret,
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		Issuer:             cfg.App.Name,
	})

	srv := httpapi.New(cfg, httpapi.Deps{
		Logger:     logger.Log,
		Telemetry:  tp,
		Solver:     solverSvc,
		JWTManager: jwtManager,
		Scenarios:  scenarios,
		Solves:     solves,
	})

	logger.Info("starting cdnflow-server",
		"port", cfg.HTTP.Port,
		"environment", cfg.App.Environment,
		"version", cfg.App.Version,
		"cache_enabled", cfg.Cache.Enabled,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server failed", "error", err)
	}
}
