package analytics

import "github.com/odyssey-erp/lead-insights/internal/charts"

// LeadMetrics is the scoring snapshot for a single lead.
type LeadMetrics struct {
	TotalScore            *float64 `json:"totalScore"`
	ScoreGrade            string   `json:"scoreGrade"`
	ConversionProbability *float64 `json:"conversionProbability"`
	DemographicScore      *float64 `json:"demographicScore"`
	BehavioralScore       *float64 `json:"behavioralScore"`
	FirmographicScore     *float64 `json:"firmographicScore"`
	EngagementScore       *float64 `json:"engagementScore"`
}

// DashboardData is the organisation wide lead aggregate.
type DashboardData struct {
	TotalLeads        *float64       `json:"totalLeads"`
	TotalTerritories  *float64       `json:"totalTerritories"`
	AvgConversionRate *float64       `json:"avgConversionRate"`
	TotalRevenue      *float64       `json:"totalRevenue"`
	ScoreDistribution charts.Counts  `json:"scoreDistribution"`
	ConversionFunnel  *charts.Funnel `json:"conversionFunnel"`
}

// TerritoryMetrics is the aggregate scoped to one territory.
type TerritoryMetrics struct {
	TerritoryName  string              `json:"territoryName"`
	ActiveLeads    *float64            `json:"activeLeads"`
	ConversionRate *float64            `json:"conversionRate"`
	TotalRevenue   *float64            `json:"totalRevenue"`
	LeadsByStatus  charts.Counts       `json:"leadsByStatus"`
	MonthlyTrends  []charts.TrendEntry `json:"monthlyTrends"`
}
