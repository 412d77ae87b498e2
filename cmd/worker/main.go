package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/app"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/featureconfig"
	jobmetrics "github.com/o-tomin/secret-company-role-based-feature-access-app/internal/jobs"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/platform/cache"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/internal/platform/db"
	"github.com/o-tomin/secret-company-role-based-feature-access-app/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	var store featureconfig.Store
	switch cfg.ConfigStore {
	case app.StoreRedis:
		client, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		store = featureconfig.NewRedisStore(client)
	case app.StorePostgres:
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		store = featureconfig.NewPostgresStore(pool)
	default:
		store = featureconfig.NewFileStore(cfg.ConfigCachePath)
	}

	source := featureconfig.NewHTTPSource(cfg.ConfigBaseURL, &http.Client{Timeout: cfg.ConfigFetchTimeout})
	repo := featureconfig.NewRepository(source, store, logger)
	refreshJob := jobs.NewConfigRefreshJob(repo, logger, jobmetrics.NewMetrics(nil))

	var cron []jobs.CronRegistration
	if cfg.RefreshCron != "" {
		refreshTask, err := jobs.NewConfigRefreshTask("cron")
		if err != nil {
			logger.Error("build refresh task", slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{
			Spec:    cfg.RefreshCron,
			Task:    refreshTask,
			Options: []asynq.Option{asynq.MaxRetry(3)},
		})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskConfigRefresh, Handler: refreshJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
