package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "pollenpaw_worker"

// Metrics holds the worker's Prometheus collectors.
type Metrics struct {
	// labels: provider={pollen,air_quality}, outcome={success,error,skipped}
	Refreshes *prometheus.CounterVec

	RunDuration     prometheus.Histogram
	TrackedZipCodes prometheus.Gauge
	LastRunSuccess  prometheus.Gauge

	// labels: job_type, outcome={success,error,ignored}
	Jobs *prometheus.CounterVec
}

// NewMetrics creates the worker metrics and registers them with reg.
// A nil reg leaves them unregistered, which suits tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refreshes_total",
			Help:      "Per-zip provider refreshes by provider and outcome.",
		}, []string{"provider", "outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_run_duration_seconds",
			Help:      "Duration of a complete refresh run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		TrackedZipCodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "tracked_zip_codes",
			Help:      "Zip codes covered by the last refresh run.",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "last_run_success_timestamp_seconds",
			Help:      "Unix time of the last refresh run without failures.",
		}),
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_total",
			Help:      "Dispatched jobs by type and outcome.",
		}, []string{"job_type", "outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Refreshes,
			m.RunDuration,
			m.TrackedZipCodes,
			m.LastRunSuccess,
			m.Jobs,
		)
	}

	return m
}
