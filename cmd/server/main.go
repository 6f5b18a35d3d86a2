package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cf_finder/internal/api"
	"cf_finder/internal/app/engine"
	"cf_finder/internal/app/service"
	"cf_finder/internal/domain/repository"
	"cf_finder/internal/platform/cache"
	"cf_finder/internal/platform/codeforces"
	"cf_finder/internal/platform/config"
	"cf_finder/internal/platform/database"
	"cf_finder/internal/platform/telemetry"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// 1. Load Configuration
	if err := config.Load(); err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := config.AppConfig

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "store", cfg.StoreDriver, "cache", cfg.RedisAddr != "")

	ctx := context.Background()

	// 2. Initialize Database
	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)
	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	// 3. Initialize Metrics & Tracing
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg)

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.OTLPEndpoint)
	if err != nil {
		logger.Error("failed to set up tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	// 4. Initialize Judge Client (optionally behind Redis)
	var fetcher engine.Fetcher = codeforces.NewClient(cfg.CFAPIBaseURL, cfg.CFHTTPTimeout, metrics, logger)
	if cfg.RedisAddr != "" {
		rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer cache.Close(rdb)
		fetcher = cache.NewCachingFetcher(fetcher, cache.NewSubmissionCache(rdb, cfg.SubmissionCacheTTL, metrics, logger))
	}

	// 5. Initialize Repositories & Services
	savedRepo := repository.NewSQLSavedQueryRepository(db, cfg.SavedQueryLimit)
	policy, err := engine.ParseSelectorPolicy(cfg.DefaultSelectorPolicy, engine.DefaultFinderPolicy)
	if err != nil {
		logger.Error("invalid default selector policy", "error", err)
		os.Exit(1)
	}
	finderService := service.NewFinderService(
		fetcher,
		savedRepo,
		service.NewSequencer(service.DefaultMaxSessions),
		metrics,
		logger,
		policy,
	)

	// 6. Initialize Router & HTTP Server
	router := api.NewRouter(finderService, metrics, reg)

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 90 * time.Second, // fetches for many handles can be slow
		IdleTimeout:  120 * time.Second,
	}

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("could not listen", "port", cfg.APIPort, "error", err)
			os.Exit(1)
		}
	}()

	<-stop

	logger.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
		return
	}
	logger.Info("server stopped gracefully")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
