package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDashboardWarmup pre-populates the analytics cache.
	TaskDashboardWarmup = "leadinsights:dashboard_warmup"
	// TaskCacheBump invalidates every cached analytics payload.
	TaskCacheBump = "leadinsights:cache_bump"
)

// DashboardWarmupPayload lists the scopes to warm beyond the organisation
// dashboard. Empty slices fall back to the worker's configured territories.
type DashboardWarmupPayload struct {
	TerritoryIDs []string `json:"territory_ids,omitempty"`
	LeadIDs      []string `json:"lead_ids,omitempty"`
}

// CacheBumpPayload records why a bump was requested.
type CacheBumpPayload struct {
	Reason string `json:"reason,omitempty"`
	Warm   bool   `json:"warm"`
}

// NewDashboardWarmupTask constructs an Asynq task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, data), nil
}

// NewCacheBumpTask constructs an Asynq task.
func NewCacheBumpTask(payload CacheBumpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheBump, data), nil
}
