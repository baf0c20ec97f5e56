// Package views adapts analytics payloads into the view models served to the
// rendering boundary. Models are recomputed from slot snapshots on each read.
package views

import (
	"log/slog"

	"github.com/odyssey-erp/lead-insights/internal/loadctl"
	"github.com/odyssey-erp/lead-insights/internal/notify"
)

// Kind names a view type.
type Kind string

const (
	KindScorecard Kind = "lead-scorecard"
	KindDashboard Kind = "territory-dashboard"
)

// User facing failure messages.
const (
	MsgLeadMetrics      = "Failed to load lead metrics"
	MsgDashboardData    = "Failed to load dashboard data"
	MsgTerritoryMetrics = "Failed to load territory metrics"
)

// Fallback labels for absent text fields.
const (
	fallbackGrade     = "N/A"
	fallbackTerritory = "Territory"
)

// Deps are the collaborators shared by every view.
type Deps struct {
	Notifier notify.Notifier
	Logger   *slog.Logger
	Metrics  *loadctl.Metrics
}

func (d Deps) config(kind Kind, id string) loadctl.Config {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if id != "" {
		logger = logger.With(slog.String("entity_id", id))
	}
	return loadctl.Config{
		View:     string(kind),
		Entity:   id,
		Notifier: d.Notifier,
		Logger:   logger,
		Metrics:  d.Metrics,
	}
}
