package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the risk service.
type Metrics struct {
	ScoringRuns      *prometheus.CounterVec // labels: outcome={success,not_found,invalid,error}
	ScoringDuration  prometheus.Histogram
	LocationsScored  prometheus.Gauge
	InvalidRatings   prometheus.Counter
	TierAssignments  *prometheus.CounterVec // labels: tier={low,medium,high}
	ClusterInertia   prometheus.Gauge
	Exports          *prometheus.CounterVec // labels: format={records,spreadsheet,document,summary}, outcome={success,empty,error}
	ExportsThrottled prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ScoringRuns,
		m.ScoringDuration,
		m.LocationsScored,
		m.InvalidRatings,
		m.TierAssignments,
		m.ClusterInertia,
		m.Exports,
		m.ExportsThrottled,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// NewUnregisteredMetrics creates Metrics for one-shot commands that never
// expose /metrics.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ScoringRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ncr_risk",
			Name:      "scoring_runs_total",
			Help:      "Pipeline scoring runs by outcome.",
		}, []string{"outcome"}),
		ScoringDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ncr_risk",
			Name:      "scoring_duration_seconds",
			Help:      "Duration of a full load-encode-cluster-label run.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		LocationsScored: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ncr_risk",
			Name:      "locations_scored",
			Help:      "Number of locations in the most recent scoring run.",
		}),
		InvalidRatings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncr_risk",
			Name:      "invalid_ratings_total",
			Help:      "Hazard ratings outside low/medium/high, treated as missing.",
		}),
		TierAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ncr_risk",
			Name:      "tier_assignments_total",
			Help:      "Locations assigned to each risk tier across scoring runs.",
		}, []string{"tier"}),
		ClusterInertia: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ncr_risk",
			Name:      "cluster_inertia",
			Help:      "Within-cluster sum of squares of the most recent clustering.",
		}),
		Exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ncr_risk",
			Name:      "exports_total",
			Help:      "Rendered outputs by format and outcome.",
		}, []string{"format", "outcome"}),
		ExportsThrottled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ncr_risk",
			Name:      "exports_throttled_total",
			Help:      "Export requests rejected by the rate limiter.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ncr_risk",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ncr_risk",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ncr_risk",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ncr_risk",
			Name:      "geocode_enabled",
			Help:      "1 when coordinate enrichment is enabled, 0 otherwise.",
		}),
	}
}
