package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the tracker's Prometheus collectors, registered on a private
// registry so tests and multiple trackers never collide.
type Metrics struct {
	registry *prometheus.Registry

	scans         *prometheus.CounterVec
	events        *prometheus.CounterVec
	uniqueCodes   prometheus.Gauge
	betweenScans  prometheus.Histogram
	storeFailures prometheus.Counter
}

func newMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellscan",
			Name:      "scans_total",
			Help:      "Scans tracked, by status and code kind.",
		}, []string{"status", "kind"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cellscan",
			Name:      "events_total",
			Help:      "Analytics events emitted, by name.",
		}, []string{"event"}),
		uniqueCodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cellscan",
			Name:      "unique_codes",
			Help:      "Distinct codes seen by the store.",
		}),
		betweenScans: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cellscan",
			Name:      "seconds_between_scans",
			Help:      "Whole seconds between consecutive scans.",
			Buckets:   []float64{1, 2, 5, 10, 30, 60, 300, 900, 3600},
		}),
		storeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cellscan",
			Name:      "store_failures_total",
			Help:      "Scans that could not be persisted.",
		}),
	}
	m.registry.MustRegister(m.scans, m.events, m.uniqueCodes, m.betweenScans, m.storeFailures)
	return m
}

// Registry exposes the collectors, e.g. to promhttp.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
