package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"courseintel/internal/catalog"
	"courseintel/internal/ingestion"
	"courseintel/internal/recommend"
	"courseintel/internal/scoring"
	"courseintel/internal/server"
	"courseintel/pkg/config"
	"courseintel/pkg/health"
	"courseintel/pkg/kafka"
	"courseintel/pkg/logger"
	"courseintel/pkg/metrics"
	"courseintel/pkg/middleware"
	"courseintel/pkg/postgres"
	pkgredis "courseintel/pkg/redis"
	"courseintel/pkg/resilience"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting course intelligence server", "port", cfg.Server.Port)

	var m *metrics.Metrics
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		m = metrics.New()
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	db, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	store := catalog.NewStore(db, cfg.Importer.Table)

	params := scoring.Params{
		MinEvidence:         cfg.Engine.MinEvidence,
		SuspicionEngagement: cfg.Engine.SuspicionEngagement,
		SuspicionMaxSubs:    cfg.Engine.SuspicionMaxSubs,
	}
	engine := recommend.NewEngine(store, params, cfg.Engine.VocabularyLimit, cfg.Engine.RebuildTimeout, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Engine.RebuildOnStart {
		var snap *recommend.Snapshot
		// Postgres may still be coming up when the service starts.
		err := resilience.Retry(ctx, "initial-snapshot", resilience.Policy{MaxAttempts: 5}, func() error {
			var buildErr error
			snap, buildErr = engine.Rebuild(ctx)
			return buildErr
		})
		if err != nil {
			slog.Error("initial snapshot build failed", "error", err)
			os.Exit(1)
		}
		slog.Info("initial snapshot ready", "version", snap.Version, "courses", len(snap.Courses))
	}

	var resultCache *recommend.ResultCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, recommendation caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		resultCache = recommend.NewResultCache(redisClient, cfg.Redis)
		slog.Info("recommendation cache enabled",
			"addr", cfg.Redis.Addr,
			"ttl", cfg.Redis.CacheTTL,
		)
	}

	// Rebuild whenever the importer announces a fresh catalog load.
	refreshConsumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.CatalogRefresh,
		func(ctx context.Context, key []byte, value []byte) error {
			event, err := kafka.DecodeJSON[ingestion.RefreshEvent](value)
			if err != nil {
				slog.Error("bad refresh event", "error", err)
				return nil
			}
			slog.Info("catalog refresh received", "source", event.Source, "courses", event.Courses)
			if _, err := engine.Rebuild(ctx); err != nil {
				slog.Error("snapshot rebuild failed", "error", err)
				return nil
			}
			if resultCache != nil {
				if err := resultCache.Invalidate(ctx); err != nil {
					slog.Error("cache invalidation failed", "error", err)
				}
			}
			return nil
		})
	go func() {
		if err := refreshConsumer.Start(ctx); err != nil {
			slog.Error("refresh consumer error", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("postgres", health.Required(db))
	var cachePinger health.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	checker.Register("redis", health.BestEffort(cachePinger))
	checker.Register("snapshot", health.SnapshotCheck(func() (string, int, error) {
		snap, err := engine.Snapshot()
		if err != nil {
			return "", 0, err
		}
		return snap.Version, len(snap.Courses), nil
	}))

	h := server.New(engine, resultCache, m, cfg.Engine)
	mux := http.NewServeMux()
	h.Routes(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.RequestID(chain)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}
	if metricsShutdown != nil {
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}
	slog.Info("shutdown complete")
}
