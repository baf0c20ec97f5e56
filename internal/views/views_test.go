package views

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/lead-insights/internal/analytics"
	"github.com/odyssey-erp/lead-insights/internal/charts"
	"github.com/odyssey-erp/lead-insights/internal/format"
	"github.com/odyssey-erp/lead-insights/internal/loadctl"
	"github.com/odyssey-erp/lead-insights/internal/notify"
	"github.com/odyssey-erp/lead-insights/internal/records"
	"github.com/odyssey-erp/lead-insights/internal/shared"
)

type stubAnalytics struct {
	mu             sync.Mutex
	lead           analytics.LeadMetrics
	leadErr        error
	leadCalls      int
	dashboard      analytics.DashboardData
	dashboardErr   error
	territory      analytics.TerritoryMetrics
	territoryErr   error
	territoryCalls int
}

func (s *stubAnalytics) GetLeadMetrics(ctx context.Context, leadID string) (analytics.LeadMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leadCalls++
	return s.lead, s.leadErr
}

func (s *stubAnalytics) GetDashboardData(ctx context.Context) (analytics.DashboardData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dashboard, s.dashboardErr
}

func (s *stubAnalytics) GetTerritoryMetrics(ctx context.Context, territoryID string) (analytics.TerritoryMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.territoryCalls++
	return s.territory, s.territoryErr
}

func (s *stubAnalytics) setLeadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leadErr = err
}

type stubRecords struct {
	rec records.LeadRecord
	err error
}

func (s stubRecords) Lead(ctx context.Context, id string) (records.LeadRecord, error) {
	return s.rec, s.err
}

func settle(t *testing.T, c *loadctl.Controller) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := c.Wait(ctx)
	require.False(t, errors.Is(err, context.DeadlineExceeded), "view did not settle")
	return err
}

func hotLead() analytics.LeadMetrics {
	return analytics.LeadMetrics{
		TotalScore:            format.Float(85),
		ScoreGrade:            "Hot",
		ConversionProbability: format.Float(72.3),
		DemographicScore:      format.Float(20),
		BehavioralScore:       format.Float(25),
		FirmographicScore:     format.Float(20),
		EngagementScore:       format.Float(20),
	}
}

func TestScorecardHotLead(t *testing.T) {
	remote := &stubAnalytics{lead: hotLead()}
	rec := records.LeadRecord{ID: "00Q1", Name: "Ada", Company: "Engines", Status: "Working", Rating: "Hot"}
	sc := NewScorecard("00Q1", remote, stubRecords{rec: rec}, Deps{})

	before := sc.Model()
	assert.False(t, before.HasMetrics)
	assert.Equal(t, loadctl.Idle, before.Status)
	assert.Equal(t, "N/A", before.ScoreGrade)
	assert.Equal(t, "0", before.TotalScore)

	require.NoError(t, sc.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, sc.Controller()))

	m := sc.Model()
	assert.Equal(t, loadctl.Ready, m.Status)
	assert.True(t, m.HasMetrics)
	assert.Equal(t, "85", m.TotalScore)
	assert.Equal(t, "Hot", m.ScoreGrade)
	assert.Equal(t, "72.3%", m.ConversionProbability)
	assert.Equal(t, "20", m.DemographicScore)
	assert.Equal(t, "25", m.BehavioralScore)
	assert.Equal(t, "20", m.FirmographicScore)
	assert.Equal(t, "20", m.EngagementScore)
	assert.Equal(t, shared.VariantSuccess, m.ScoreVariant)
	assert.Equal(t, format.TierHot, m.ScoreTier)
	assert.Contains(t, m.ProgressBarClass, "progress-hot")
	assert.Equal(t, "width: 85%", m.ProgressWidth)
	require.NotNil(t, m.Record)
	assert.Equal(t, "Ada", m.Record.Name)
}

func TestScorecardFailureThenRefresh(t *testing.T) {
	remote := &stubAnalytics{lead: hotLead(), leadErr: errors.New("503 from analytics")}
	feed := notify.NewFeed(10)
	sc := NewScorecard("00Q1", remote, nil, Deps{Notifier: feed})

	require.NoError(t, sc.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, sc.Controller()))

	m := sc.Model()
	assert.Equal(t, loadctl.Failed, m.Status)
	assert.False(t, m.HasMetrics)
	assert.Nil(t, m.Record)
	toasts := feed.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, MsgLeadMetrics, toasts[0].Message)
	assert.Equal(t, shared.VariantError, toasts[0].Variant)
	assert.Equal(t, string(KindScorecard), toasts[0].View)
	assert.Equal(t, "00Q1", toasts[0].Entity)

	remote.setLeadErr(nil)
	sc.Controller().Refresh(context.Background())
	require.NoError(t, settle(t, sc.Controller()))

	assert.Equal(t, loadctl.Ready, sc.Model().Status)
	assert.True(t, sc.Model().HasMetrics)
	assert.Equal(t, 2, remote.leadCalls)
	assert.Empty(t, feed.Drain())
}

func TestScorecardRecordFailureIsQuiet(t *testing.T) {
	remote := &stubAnalytics{lead: analytics.LeadMetrics{TotalScore: format.Float(61.6), ScoreGrade: "Warm"}}
	feed := notify.NewFeed(10)
	sc := NewScorecard("00Q1", remote, stubRecords{err: shared.ErrNotFound}, Deps{Notifier: feed})

	require.NoError(t, sc.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, sc.Controller()))

	m := sc.Model()
	assert.Equal(t, loadctl.Ready, m.Status)
	assert.Nil(t, m.Record)
	assert.Equal(t, "62", m.TotalScore)
	assert.Equal(t, shared.VariantWarning, m.ScoreVariant)
	assert.Equal(t, "progress-bar progress-warm", m.ProgressBarClass)
	assert.Equal(t, "0", m.EngagementScore)
	assert.Equal(t, "0%", m.ConversionProbability)
	assert.Empty(t, feed.Recent())
}

func dashboardPayload() analytics.DashboardData {
	return analytics.DashboardData{
		TotalLeads:        format.Float(1234),
		TotalTerritories:  format.Float(12),
		AvgConversionRate: format.Float(23.456),
		TotalRevenue:      format.Float(2500000),
		ScoreDistribution: charts.Counts{{Label: "Hot", Count: 10}, {Label: "Warm", Count: 5}, {Label: "Cold", Count: 3}},
		ConversionFunnel:  &charts.Funnel{TotalLeads: 100, Qualified: 50, Contacted: 30, Converted: 10},
	}
}

func TestDashboardAggregateOnly(t *testing.T) {
	remote := &stubAnalytics{dashboard: dashboardPayload()}
	d := NewDashboard("", remote, Deps{})
	assert.Equal(t, []string{"dashboard"}, d.Controller().Slots())

	require.NoError(t, d.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, d.Controller()))

	m := d.Model()
	assert.Equal(t, loadctl.Ready, m.Status)
	assert.True(t, m.HasData)
	assert.False(t, m.HasTerritoryData)
	assert.Equal(t, 0, remote.territoryCalls)

	assert.Equal(t, "1,234", m.TotalLeads)
	assert.Equal(t, "12", m.TotalTerritories)
	assert.Equal(t, "23.46%", m.AvgConversionRate)
	assert.Equal(t, "$2,500,000", m.TotalRevenue)

	require.NotNil(t, m.LeadsByGrade)
	assert.Equal(t, []string{"Hot", "Warm", "Cold"}, m.LeadsByGrade.Labels())
	assert.Equal(t, []float64{10, 5, 3}, m.LeadsByGrade.Values())
	require.NotNil(t, m.LeadsByGradeChart)
	assert.Equal(t, []string{"Hot", "Warm", "Cold"}, m.LeadsByGradeChart.Labels)
	assert.Equal(t, charts.FunnelStages, m.ConversionFunnelChart.Labels)
	assert.Equal(t, []float64{100, 50, 30, 10}, m.ConversionFunnelChart.Datasets[0].Data)

	assert.Equal(t, "Territory", m.TerritoryName)
	assert.Equal(t, "0", m.ActiveLeads)
	assert.Equal(t, "0%", m.TerritoryConversionRate)
	assert.Equal(t, "$0", m.TerritoryRevenue)
	assert.Nil(t, m.LeadsByStatusChart)
	assert.Nil(t, m.MonthlyTrendChart)
}

func TestDashboardWithTerritory(t *testing.T) {
	remote := &stubAnalytics{
		dashboard: dashboardPayload(),
		territory: analytics.TerritoryMetrics{
			TerritoryName:  "Pacific Northwest",
			ActiveLeads:    format.Float(4321),
			ConversionRate: format.Float(18.5),
			TotalRevenue:   format.Float(987654.4),
			LeadsByStatus:  charts.Counts{{Label: "Open", Count: 7}, {Label: "Working", Count: 3}},
			MonthlyTrends: []charts.TrendEntry{
				{Month: 11, Year: 2024, LeadCount: 5},
				{Month: 12, Year: 2024, LeadCount: 8},
			},
		},
	}
	d := NewDashboard("a0T000000000001", remote, Deps{})
	require.NoError(t, d.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, d.Controller()))

	m := d.Model()
	assert.True(t, m.HasData)
	assert.True(t, m.HasTerritoryData)
	assert.Equal(t, "Pacific Northwest", m.TerritoryName)
	assert.Equal(t, "4,321", m.ActiveLeads)
	assert.Equal(t, "18.50%", m.TerritoryConversionRate)
	assert.Equal(t, "$987,654", m.TerritoryRevenue)
	assert.Equal(t, []string{"Open", "Working"}, m.LeadsByStatusChart.Labels)
	assert.Equal(t, []string{"#FF6384", "#36A2EB"}, m.LeadsByStatusChart.Datasets[0].BackgroundColor)
	assert.Equal(t, []string{"11/2024", "12/2024"}, m.MonthlyTrendChart.Labels)
	assert.Equal(t, "Leads per Month", m.MonthlyTrendChart.Datasets[0].Label)
}

func TestDashboardTerritoryFailureKeepsAggregateReady(t *testing.T) {
	remote := &stubAnalytics{dashboard: dashboardPayload(), territoryErr: errors.New("gone")}
	feed := notify.NewFeed(10)
	d := NewDashboard("a0T000000000001", remote, Deps{Notifier: feed})

	require.NoError(t, d.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, d.Controller()))

	m := d.Model()
	assert.Equal(t, loadctl.Ready, m.Status)
	assert.True(t, m.HasData)
	assert.False(t, m.HasTerritoryData)
	toasts := feed.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, MsgTerritoryMetrics, toasts[0].Message)
}

func TestDashboardMissingAggregateIsShapingError(t *testing.T) {
	payload := dashboardPayload()
	payload.ConversionFunnel = nil
	remote := &stubAnalytics{dashboard: payload}
	feed := notify.NewFeed(10)
	d := NewDashboard("", remote, Deps{Notifier: feed})

	require.NoError(t, d.Controller().Initialize(context.Background()))
	err := settle(t, d.Controller())

	assert.ErrorIs(t, err, charts.ErrShaping)
	assert.Equal(t, loadctl.Failed, d.Model().Status)
	assert.False(t, d.Model().HasData)
	assert.Empty(t, feed.Recent())
}

func TestDashboardEmptyDistributionIsNotAnError(t *testing.T) {
	payload := dashboardPayload()
	payload.ScoreDistribution = charts.Counts{}
	d := NewDashboard("", &stubAnalytics{dashboard: payload}, Deps{})

	require.NoError(t, d.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, d.Controller()))

	m := d.Model()
	assert.True(t, m.HasData)
	assert.Equal(t, 0, m.LeadsByGrade.Len())
	assert.Empty(t, m.LeadsByGradeChart.Labels)
}

func TestModelIsRecomputedPerRead(t *testing.T) {
	d := NewDashboard("", &stubAnalytics{dashboard: dashboardPayload()}, Deps{})
	require.NoError(t, d.Controller().Initialize(context.Background()))
	require.NoError(t, settle(t, d.Controller()))

	first := d.Model()
	first.LeadsByGradeChart.Labels[0] = "tampered"
	assert.Equal(t, "Hot", d.Model().LeadsByGradeChart.Labels[0])
}

func TestRegistryReusesAndInitializes(t *testing.T) {
	remote := &stubAnalytics{lead: hotLead(), dashboard: dashboardPayload()}
	reg := NewRegistry(RegistryConfig{Leads: remote, Dashboard: remote})
	ctx := context.Background()

	sc := reg.Scorecard(ctx, "00Q1")
	assert.True(t, sc.Controller().Initialized())
	assert.Same(t, sc, reg.Scorecard(ctx, "00Q1"))
	require.NoError(t, settle(t, sc.Controller()))
	assert.Equal(t, 1, remote.leadCalls)

	d := reg.Dashboard(ctx, "")
	assert.Same(t, d, reg.Dashboard(ctx, ""))
	assert.NotSame(t, d, reg.Dashboard(ctx, "T1"))
	assert.Equal(t, 3, reg.Len())
}

func TestRegistryKeysOnTrimmedID(t *testing.T) {
	remote := &stubAnalytics{lead: hotLead(), dashboard: dashboardPayload()}
	reg := NewRegistry(RegistryConfig{Leads: remote, Dashboard: remote})
	ctx := context.Background()

	sc := reg.Scorecard(ctx, " 00Q1 ")
	assert.Same(t, sc, reg.Scorecard(ctx, "00Q1"))
	require.NoError(t, settle(t, sc.Controller()))

	d := reg.Dashboard(ctx, "  ")
	assert.Same(t, d, reg.Dashboard(ctx, ""))
	assert.Equal(t, "", d.TerritoryID())
	require.NoError(t, settle(t, d.Controller()))

	assert.Equal(t, 2, reg.Len())
	assert.Equal(t, 1, remote.leadCalls)
}

func TestRegistryEvictsOldestSettledView(t *testing.T) {
	remote := &stubAnalytics{lead: hotLead()}
	reg := NewRegistry(RegistryConfig{Leads: remote, MaxViews: 2})
	ctx := context.Background()

	first := reg.Scorecard(ctx, "A")
	require.NoError(t, settle(t, first.Controller()))
	second := reg.Scorecard(ctx, "B")
	require.NoError(t, settle(t, second.Controller()))

	third := reg.Scorecard(ctx, "C")
	require.NoError(t, settle(t, third.Controller()))
	assert.Equal(t, 2, reg.Len())
	assert.NotSame(t, first, reg.Scorecard(ctx, "A"), "A was evicted and rebuilt")
}
