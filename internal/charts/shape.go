package charts

import (
	"errors"
	"fmt"
)

// ErrShaping is matched by every ShapingError.
var ErrShaping = errors.New("charts: aggregate missing")

// ShapingError reports that a shaper received a structurally absent
// aggregate. It signals a producer contract violation, not a transient fault.
type ShapingError struct {
	Shaper string
}

func (e *ShapingError) Error() string {
	return fmt.Sprintf("charts: %s: aggregate missing", e.Shaper)
}

// Is lets errors.Is match ErrShaping.
func (e *ShapingError) Is(target error) bool {
	return target == ErrShaping
}

// Funnel holds the four conversion stage counts.
type Funnel struct {
	TotalLeads float64 `json:"totalLeads"`
	Qualified  float64 `json:"qualified"`
	Contacted  float64 `json:"contacted"`
	Converted  float64 `json:"converted"`
}

// TrendEntry is one month of the lead trend. Producers send entries in
// chronological order.
type TrendEntry struct {
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	LeadCount float64 `json:"leadCount"`
}

// Funnel stage labels in display order.
var FunnelStages = []string{"Total Leads", "Qualified", "Contacted", "Converted"}

// ShapeCategorical keeps the order of counts and assigns palette colours
// cyclically by position. An empty palette leaves points uncoloured.
func ShapeCategorical(counts Counts, palette []string) (Series, error) {
	if counts == nil {
		return Series{}, &ShapingError{Shaper: "categorical"}
	}
	points := make([]Point, len(counts))
	for i, entry := range counts {
		points[i] = Point{Label: entry.Label, Value: entry.Count}
		if len(palette) > 0 {
			points[i].Color = palette[i%len(palette)]
		}
	}
	return Series{Kind: KindCategorical, Points: points}, nil
}

// ShapeFunnel always yields the four stages in their fixed order.
func ShapeFunnel(f *Funnel) (Series, error) {
	if f == nil {
		return Series{}, &ShapingError{Shaper: "funnel"}
	}
	values := []float64{f.TotalLeads, f.Qualified, f.Contacted, f.Converted}
	points := make([]Point, len(FunnelStages))
	for i, stage := range FunnelStages {
		points[i] = Point{Label: stage, Value: values[i]}
	}
	return Series{Kind: KindFunnel, Label: "Conversion Funnel", Points: points, Color: FunnelColor}, nil
}

// ShapeTimeSeries labels each entry "month/year" and keeps input order.
func ShapeTimeSeries(entries []TrendEntry) (Series, error) {
	if entries == nil {
		return Series{}, &ShapingError{Shaper: "time series"}
	}
	points := make([]Point, len(entries))
	for i, e := range entries {
		points[i] = Point{Label: fmt.Sprintf("%d/%d", e.Month, e.Year), Value: e.LeadCount}
	}
	return Series{Kind: KindTime, Label: "Leads per Month", Points: points, BorderColor: TrendColor, Fill: false}, nil
}
