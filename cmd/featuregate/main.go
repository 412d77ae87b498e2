package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/app"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/featureconfig"
	featurehttp "github.com/o-tomin/secret-company-role-based-feature-access-app/internal/featureconfig/http"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/observability"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/platform/cache"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/platform/db"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/jobs"
)

func newStore(ctx context.Context, cfg *app.Config, logger *slog.Logger) (featureconfig.Store, func(), error) {
	switch cfg.ConfigStore {
	case app.StoreRedis:
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
		return featureconfig.NewRedisStore(client), cleanup, nil
	case app.StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return featureconfig.NewPostgresStore(pool), pool.Close, nil
	default:
		return featureconfig.NewFileStore(cfg.ConfigCachePath), func() {}, nil
	}
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store, cleanup, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("init config store", slog.Any("error", err))
		os.Exit(1)
	}
	defer cleanup()

	source := featureconfig.NewHTTPSource(cfg.ConfigBaseURL, &http.Client{Timeout: cfg.ConfigFetchTimeout})
	repo := featureconfig.NewRepository(source, store, logger)
	repo.OnFetch = metrics.CountFetch

	resolution := featureconfig.NewResolutionService(repo, logger)
	defer resolution.Close()

	// Warm the cache so the first request is served from fresh data when
	// the distribution host is reachable.
	repo.FetchAndPersist(ctx)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	// Kick the worker as well so both processes converge on the same
	// document version after a restart.
	if _, err := jobClient.EnqueueConfigRefresh(ctx, "startup"); err != nil {
		logger.Warn("enqueue startup refresh", slog.Any("error", err))
	}

	featureHandler := featurehttp.NewHandler(logger, repo, resolution, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		FeatureHandler: featureHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
