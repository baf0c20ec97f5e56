package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/odyssey-erp/lead-insights/internal/charts"
	"github.com/odyssey-erp/lead-insights/internal/views"
)

// WriteDashboardKPICSV writes the headline dashboard figures as displayed.
func WriteDashboardKPICSV(w io.Writer, m views.DashboardModel) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Total Leads", m.TotalLeads},
		{"Total Territories", m.TotalTerritories},
		{"Average Conversion Rate", m.AvgConversionRate},
		{"Total Revenue", m.TotalRevenue},
	}
	if m.HasTerritoryData {
		records = append(records,
			[]string{"Territory", m.TerritoryName},
			[]string{"Active Leads", m.ActiveLeads},
			[]string{"Territory Conversion Rate", m.TerritoryConversionRate},
			[]string{"Territory Revenue", m.TerritoryRevenue},
		)
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSeriesCSV emits one series as label/value rows under heading.
func WriteSeriesCSV(w io.Writer, heading string, s charts.Series) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{heading, "Value"}); err != nil {
		return err
	}
	for _, p := range s.Points {
		if err := writer.Write([]string{p.Label, formatFloat(p.Value)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteScorecardCSV writes the lead scorecard breakdown.
func WriteScorecardCSV(w io.Writer, m views.ScorecardModel) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()
	if err := writer.Write([]string{"Metric", "Value"}); err != nil {
		return err
	}
	records := [][]string{
		{"Lead", m.LeadID},
		{"Total Score", m.TotalScore},
		{"Grade", m.ScoreGrade},
		{"Conversion Probability", m.ConversionProbability},
		{"Demographic", m.DemographicScore},
		{"Behavioral", m.BehavioralScore},
		{"Firmographic", m.FirmographicScore},
		{"Engagement", m.EngagementScore},
	}
	for _, record := range records {
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
