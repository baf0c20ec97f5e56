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

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/lead-insights/internal/analytics"
	"github.com/odyssey-erp/lead-insights/internal/app"
	"github.com/odyssey-erp/lead-insights/internal/loadctl"
	"github.com/odyssey-erp/lead-insights/internal/notify"
	"github.com/odyssey-erp/lead-insights/internal/observability"
	"github.com/odyssey-erp/lead-insights/internal/platform/cache"
	"github.com/odyssey-erp/lead-insights/internal/platform/db"
	"github.com/odyssey-erp/lead-insights/internal/records"
	"github.com/odyssey-erp/lead-insights/internal/views"
	viewhttp "github.com/odyssey-erp/lead-insights/internal/views/http"
	"github.com/odyssey-erp/lead-insights/jobs"
)

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
	slog.SetDefault(logger)

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		os.Exit(runJobsCommand(ctx, cfg, logger, os.Args[2:]))
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	client := analytics.NewClient(cfg.AnalyticsBaseURL, cfg.AnalyticsToken, cfg.AnalyticsTimeout)
	analyticsCache := analytics.NewCache(redisClient, cfg.AnalyticsCacheTTL, logger)
	if err := analyticsCache.ListenForInvalidation(ctx, analytics.BumpChannel); err != nil {
		logger.Warn("analytics cache invalidation listener", slog.Any("error", err))
	}
	analyticsService := analytics.NewService(client, analyticsCache)

	var recordSource views.RecordSource
	if cfg.PGDSN != "" {
		sqlDB, closeDB, err := db.Open(ctx, cfg.PGDSN)
		if err != nil {
			logger.Warn("connect postgres, lead records disabled", slog.Any("error", err))
		} else {
			defer closeDB()
			recordSource = records.NewRepository(sqlDB)
		}
	}

	feed := notify.NewFeed(cfg.FeedSize)
	notifier := notify.Multi{feed, notify.NewPublisher(redisClient, cfg.NotifyChannel, logger)}

	registry := views.NewRegistry(views.RegistryConfig{
		Leads:     analyticsService,
		Dashboard: analyticsService,
		Records:   recordSource,
		MaxViews:  cfg.MaxViews,
		Deps: views.Deps{
			Notifier: notifier,
			Logger:   logger,
			Metrics:  loadctl.NewMetrics(metrics.Registerer()),
		},
	})

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:      logger,
		Config:      cfg,
		ViewHandler: viewhttp.NewHandler(logger, registry, feed, jobClient),
		JobHandler:  jobs.NewHandler(inspector, logger),
		Metrics:     metrics,
		Checks: map[string]app.Pinger{
			"redis":     app.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
			"analytics": client,
		},
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
