package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/lead-insights/internal/analytics"
	jobmetrics "github.com/odyssey-erp/lead-insights/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

const (
	warmupTimeout     = 20 * time.Second
	warmupConcurrency = 4
)

// DashboardWarmupJob pre-populates the analytics cache for the organisation
// dashboard and the configured territories. Analytics should be the cached
// analytics.Service so reads land in Redis.
type DashboardWarmupJob struct {
	Analytics   analytics.Fetcher
	Territories []string
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewDashboardWarmupJob wires dependencies for the warmup handler.
func NewDashboardWarmupJob(svc analytics.Fetcher, territories []string, logger *slog.Logger, metrics *jobmetrics.Metrics) *DashboardWarmupJob {
	return &DashboardWarmupJob{
		Analytics:   svc,
		Territories: territories,
		Logger:      logger,
		Metrics:     metrics,
	}
}

// Handle processes warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Analytics == nil {
		return errors.New("dashboard warmup: handler not configured")
	}
	var payload DashboardWarmupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("dashboard warmup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	territories := payload.TerritoryIDs
	if len(territories) == 0 {
		territories = j.Territories
	}

	tracker := j.metrics().Track(TaskDashboardWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger()
	start := time.Now()
	logger.Info("starting dashboard warmup", slog.Int("territories", len(territories)), slog.Int("leads", len(payload.LeadIDs)))

	warmCtx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()
	if err := j.warm(warmCtx, territories, payload.LeadIDs); err != nil {
		logger.Error("dashboard warmup", slog.Any("error", err))
		return err
	}
	logger.Info("completed dashboard warmup", slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DashboardWarmupJob) warm(ctx context.Context, territories, leads []string) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(warmupConcurrency)
	g.Go(func() error {
		if _, err := j.Analytics.GetDashboardData(ctx); err != nil {
			return fmt.Errorf("warm dashboard: %w", err)
		}
		return nil
	})
	for _, id := range territories {
		if id == "" {
			continue
		}
		g.Go(func() error {
			if _, err := j.Analytics.GetTerritoryMetrics(ctx, id); err != nil {
				return fmt.Errorf("warm territory %s: %w", id, err)
			}
			return nil
		})
	}
	for _, id := range leads {
		if id == "" {
			continue
		}
		g.Go(func() error {
			if _, err := j.Analytics.GetLeadMetrics(ctx, id); err != nil {
				return fmt.Errorf("warm lead %s: %w", id, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func (j *DashboardWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDashboardWarmup))
	}
	return slog.Default().With(slog.String("job", TaskDashboardWarmup))
}

func (j *DashboardWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
