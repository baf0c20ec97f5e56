package views

import (
	"context"
	"strings"
	"sync"

	"github.com/odyssey-erp/lead-insights/internal/loadctl"
)

const defaultMaxViews = 512

// Registry keeps one live view per kind and entity, creating and
// initializing it on first access. When full it drops the oldest idle view.
type Registry struct {
	leads     LeadFetcher
	dashboard DashboardFetcher
	records   RecordSource
	deps      Deps
	max       int

	mu    sync.Mutex
	views map[registryKey]viewEntry
	order []registryKey
}

type registryKey struct {
	kind Kind
	id   string
}

type viewEntry struct {
	ctrl      *loadctl.Controller
	scorecard *Scorecard
	dashboard *Dashboard
}

// RegistryConfig wires a Registry.
type RegistryConfig struct {
	Leads     LeadFetcher
	Dashboard DashboardFetcher
	Records   RecordSource
	Deps      Deps
	MaxViews  int
}

// NewRegistry builds an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.MaxViews <= 0 {
		cfg.MaxViews = defaultMaxViews
	}
	return &Registry{
		leads:     cfg.Leads,
		dashboard: cfg.Dashboard,
		records:   cfg.Records,
		deps:      cfg.Deps,
		max:       cfg.MaxViews,
		views:     make(map[registryKey]viewEntry),
	}
}

// Scorecard returns the scorecard for leadID, initializing a new one.
func (r *Registry) Scorecard(ctx context.Context, leadID string) *Scorecard {
	leadID = strings.TrimSpace(leadID)
	key := registryKey{kind: KindScorecard, id: leadID}
	entry, created := r.lookup(key, func() viewEntry {
		sc := NewScorecard(leadID, r.leads, r.records, r.deps)
		return viewEntry{ctrl: sc.Controller(), scorecard: sc}
	})
	if created {
		r.initialize(ctx, entry.ctrl)
	}
	return entry.scorecard
}

// Dashboard returns the dashboard for territoryID ("" for reduced scope).
func (r *Registry) Dashboard(ctx context.Context, territoryID string) *Dashboard {
	territoryID = strings.TrimSpace(territoryID)
	key := registryKey{kind: KindDashboard, id: territoryID}
	entry, created := r.lookup(key, func() viewEntry {
		d := NewDashboard(territoryID, r.dashboard, r.deps)
		return viewEntry{ctrl: d.Controller(), dashboard: d}
	})
	if created {
		r.initialize(ctx, entry.ctrl)
	}
	return entry.dashboard
}

// Len reports the number of live views.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

func (r *Registry) lookup(key registryKey, build func() viewEntry) (viewEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.views[key]; ok {
		return entry, false
	}
	r.evictLocked()
	entry := build()
	r.views[key] = entry
	r.order = append(r.order, key)
	return entry, true
}

// evictLocked drops the oldest views that are not loading until there is
// room for one more.
func (r *Registry) evictLocked() {
	for i := 0; len(r.views) >= r.max && i < len(r.order); {
		key := r.order[i]
		if r.views[key].ctrl.Status() == loadctl.Loading {
			i++
			continue
		}
		delete(r.views, key)
		r.order = append(r.order[:i], r.order[i+1:]...)
	}
}

// initialize starts a freshly built view. A fresh controller cannot already
// be initialized, so the error is always nil here.
func (r *Registry) initialize(ctx context.Context, ctrl *loadctl.Controller) {
	_ = ctrl.Initialize(ctx)
}
