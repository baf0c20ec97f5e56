package views

import (
	"context"
	"strings"

	"github.com/odyssey-erp/lead-insights/internal/analytics"
	"github.com/odyssey-erp/lead-insights/internal/charts"
	"github.com/odyssey-erp/lead-insights/internal/format"
	"github.com/odyssey-erp/lead-insights/internal/loadctl"
)

// DashboardFetcher loads the aggregate and territory payloads.
type DashboardFetcher interface {
	GetDashboardData(ctx context.Context) (analytics.DashboardData, error)
	GetTerritoryMetrics(ctx context.Context, territoryID string) (analytics.TerritoryMetrics, error)
}

// DashboardSnapshot is a shaped aggregate payload.
type DashboardSnapshot struct {
	Data         analytics.DashboardData
	LeadsByGrade charts.Series
	Funnel       charts.Series
}

// TerritorySnapshot is a shaped territory payload.
type TerritorySnapshot struct {
	Data          analytics.TerritoryMetrics
	LeadsByStatus charts.Series
	MonthlyTrend  charts.Series
}

// ShapeDashboard builds the grade and funnel series of an aggregate payload.
func ShapeDashboard(data analytics.DashboardData) (DashboardSnapshot, error) {
	grade, err := charts.ShapeCategorical(data.ScoreDistribution, charts.GradePalette)
	if err != nil {
		return DashboardSnapshot{}, err
	}
	funnel, err := charts.ShapeFunnel(data.ConversionFunnel)
	if err != nil {
		return DashboardSnapshot{}, err
	}
	return DashboardSnapshot{Data: data, LeadsByGrade: grade, Funnel: funnel}, nil
}

// ShapeTerritory builds the status and trend series of a territory payload.
func ShapeTerritory(data analytics.TerritoryMetrics) (TerritorySnapshot, error) {
	status, err := charts.ShapeCategorical(data.LeadsByStatus, charts.StatusPalette)
	if err != nil {
		return TerritorySnapshot{}, err
	}
	trend, err := charts.ShapeTimeSeries(data.MonthlyTrends)
	if err != nil {
		return TerritorySnapshot{}, err
	}
	return TerritorySnapshot{Data: data, LeadsByStatus: status, MonthlyTrend: trend}, nil
}

// Dashboard is the territory level view. Without a territory id it runs in
// reduced scope and only loads the organisation aggregate.
type Dashboard struct {
	territoryID string
	ctrl        *loadctl.Controller
	aggregate   *loadctl.Slot[analytics.DashboardData, DashboardSnapshot]
	territory   *loadctl.Slot[analytics.TerritoryMetrics, TerritorySnapshot]
}

// NewDashboard builds the dashboard, optionally scoped to territoryID.
func NewDashboard(territoryID string, fetcher DashboardFetcher, deps Deps) *Dashboard {
	territoryID = strings.TrimSpace(territoryID)
	d := &Dashboard{territoryID: territoryID}
	d.aggregate = loadctl.NewSlot("dashboard", MsgDashboardData, fetcher.GetDashboardData, ShapeDashboard)
	sources := []loadctl.Source{d.aggregate}
	if territoryID != "" {
		d.territory = loadctl.NewSlot("territory", MsgTerritoryMetrics,
			func(ctx context.Context) (analytics.TerritoryMetrics, error) {
				return fetcher.GetTerritoryMetrics(ctx, territoryID)
			},
			ShapeTerritory,
		)
		sources = append(sources, d.territory)
	}
	d.ctrl = loadctl.New(deps.config(KindDashboard, territoryID), sources...)
	return d
}

// Controller exposes the load controller.
func (d *Dashboard) Controller() *loadctl.Controller {
	return d.ctrl
}

// TerritoryID returns the scoped territory, or "" in reduced scope.
func (d *Dashboard) TerritoryID() string {
	return d.territoryID
}

// DashboardModel is the rendered state of a dashboard.
type DashboardModel struct {
	TerritoryID      string         `json:"territoryId,omitempty"`
	Status           loadctl.Status `json:"status"`
	HasData          bool           `json:"hasData"`
	HasTerritoryData bool           `json:"hasTerritoryData"`

	TotalLeads            string            `json:"totalLeadsFormatted"`
	TotalTerritories      string            `json:"totalTerritoriesFormatted"`
	AvgConversionRate     string            `json:"avgConversionRateFormatted"`
	TotalRevenue          string            `json:"totalRevenueFormatted"`
	LeadsByGradeChart     *charts.ChartData `json:"leadsByGradeChart"`
	ConversionFunnelChart *charts.ChartData `json:"conversionFunnelChart"`

	TerritoryName           string            `json:"territoryName"`
	ActiveLeads             string            `json:"activeLeadsCount"`
	TerritoryConversionRate string            `json:"territoryConversionRate"`
	TerritoryRevenue        string            `json:"territoryRevenue"`
	LeadsByStatusChart      *charts.ChartData `json:"leadsByStatusChart"`
	MonthlyTrendChart       *charts.ChartData `json:"monthlyTrendChart"`

	// Series carry the shaped points for consumers that render their own charts.
	LeadsByGrade  *charts.Series `json:"-"`
	LeadsByStatus *charts.Series `json:"-"`
	Funnel        *charts.Series `json:"-"`
	MonthlyTrend  *charts.Series `json:"-"`
}

// Model derives the view model from the current snapshots.
func (d *Dashboard) Model() DashboardModel {
	model := DashboardModel{TerritoryID: d.territoryID, Status: d.ctrl.Status()}

	agg := d.aggregate.State()
	var data analytics.DashboardData
	if agg.Value != nil {
		snap := *agg.Value
		data = snap.Data
		model.HasData = true
		model.LeadsByGrade = &snap.LeadsByGrade
		model.Funnel = &snap.Funnel
		model.LeadsByGradeChart = chartData(snap.LeadsByGrade)
		model.ConversionFunnelChart = chartData(snap.Funnel)
	}
	model.TotalLeads = format.Count(data.TotalLeads)
	model.TotalTerritories = format.Count(data.TotalTerritories)
	model.AvgConversionRate = format.Percentage2(data.AvgConversionRate)
	model.TotalRevenue = format.Currency(data.TotalRevenue)

	var territory analytics.TerritoryMetrics
	if d.territory != nil {
		if st := d.territory.State(); st.Value != nil {
			snap := *st.Value
			territory = snap.Data
			model.HasTerritoryData = true
			model.LeadsByStatus = &snap.LeadsByStatus
			model.MonthlyTrend = &snap.MonthlyTrend
			model.LeadsByStatusChart = chartData(snap.LeadsByStatus)
			model.MonthlyTrendChart = chartData(snap.MonthlyTrend)
		}
	}
	model.TerritoryName = format.Text(territory.TerritoryName, fallbackTerritory)
	model.ActiveLeads = format.Count(territory.ActiveLeads)
	model.TerritoryConversionRate = format.Percentage2(territory.ConversionRate)
	model.TerritoryRevenue = format.Currency(territory.TotalRevenue)
	return model
}

func chartData(s charts.Series) *charts.ChartData {
	cd := s.ChartData()
	return &cd
}
