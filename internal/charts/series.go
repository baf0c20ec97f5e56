// Package charts reshapes analytics aggregates into chart-ready series.
//
// Shapers are pure: identical input yields identical output and nothing is
// retained between calls. They only fail when the aggregate itself is missing.
package charts

// Kind tells the renderer which family of chart a series feeds.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindFunnel      Kind = "funnel"
	KindTime        Kind = "time"
)

// Palettes and colours used by the territory dashboard.
var (
	GradePalette  = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0"}
	StatusPalette = []string{"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0", "#9966FF"}
)

const (
	FunnelColor = "#36A2EB"
	TrendColor  = "#36A2EB"
)

// Point is a single labelled value with an optional colour.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Series is an ordered run of points plus dataset level styling.
type Series struct {
	Kind        Kind    `json:"kind"`
	Label       string  `json:"label,omitempty"`
	Points      []Point `json:"points"`
	Color       string  `json:"color,omitempty"`
	BorderColor string  `json:"borderColor,omitempty"`
	Fill        bool    `json:"fill"`
}

// Len returns the number of points.
func (s Series) Len() int {
	return len(s.Points)
}

// Labels lists the point labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

// Values lists the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Colors lists the per-point colours, or nil when no point carries one.
func (s Series) Colors() []string {
	var out []string
	for i, p := range s.Points {
		if p.Color == "" {
			continue
		}
		if out == nil {
			out = make([]string, len(s.Points))
		}
		out[i] = p.Color
	}
	return out
}

// Dataset mirrors the dataset object chart libraries expect.
type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	Fill            *bool     `json:"fill,omitempty"`
}

// ChartData is the labels plus datasets payload handed to the renderer.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// ChartData converts the series into a single-dataset chart payload.
// Categorical series carry per-point colours; the others a single colour.
func (s Series) ChartData() ChartData {
	ds := Dataset{
		Label:       s.Label,
		Data:        s.Values(),
		BorderColor: s.BorderColor,
	}
	if colors := s.Colors(); colors != nil {
		ds.BackgroundColor = colors
	} else if s.Color != "" {
		ds.BackgroundColor = s.Color
	}
	if s.Kind == KindTime {
		fill := s.Fill
		ds.Fill = &fill
	}
	return ChartData{Labels: s.Labels(), Datasets: []Dataset{ds}}
}
