package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/lead-insights/internal/jobs"
)

// Bumper advances the analytics cache version.
type Bumper interface {
	Bump(ctx context.Context) (int64, error)
}

// CacheBumpJob invalidates cached analytics and optionally rewarms it.
type CacheBumpJob struct {
	Cache   Bumper
	Warmup  *DashboardWarmupJob
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// Handle processes cache bump tasks.
func (j *CacheBumpJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Cache == nil {
		return errors.New("cache bump: handler not configured")
	}
	var payload CacheBumpPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("cache bump: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskCacheBump)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", TaskCacheBump), slog.String("reason", payload.Reason))

	version, err := j.Cache.Bump(ctx)
	if err != nil {
		logger.Error("bump analytics cache", slog.Any("error", err))
		return err
	}
	logger.Info("bumped analytics cache", slog.Int64("version", version))

	if payload.Warm && j.Warmup != nil {
		task, err := NewDashboardWarmupTask(DashboardWarmupPayload{})
		if err != nil {
			return err
		}
		// A failed rewarm leaves the cache cold, not stale.
		if err := j.Warmup.Handle(ctx, task); err != nil {
			logger.Warn("rewarm after bump", slog.Any("error", err))
		}
	}
	return nil
}
