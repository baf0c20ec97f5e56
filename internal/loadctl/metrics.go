package loadctl

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeReady      = "ready"
	outcomeFetchError = "fetch_error"
	outcomeShapeError = "shape_error"
)

// Metrics records fetch outcomes per view and slot.
type Metrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	pending  *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer, or once on the default
// Prometheus registerer when registerer is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leadinsights_view_fetches_total",
		Help: "View fetch settlements partitioned by view, slot and outcome.",
	}, []string{"view", "slot", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leadinsights_view_fetch_duration_seconds",
		Help:    "Time from fetch start to settlement.",
		Buckets: prometheus.DefBuckets,
	}, []string{"view", "slot"})
	pending := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "leadinsights_view_fetches_in_flight",
		Help: "Fetches currently in flight per view.",
	}, []string{"view"})
	registerer.MustRegister(fetches, duration, pending)
	return &Metrics{fetches: fetches, duration: duration, pending: pending}
}

func (m *Metrics) observe(view, slot, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(view, slot, outcome).Inc()
	m.duration.WithLabelValues(view, slot).Observe(d.Seconds())
}

func (m *Metrics) inFlight(view string, delta int) {
	if m == nil {
		return
	}
	m.pending.WithLabelValues(view).Add(float64(delta))
}
