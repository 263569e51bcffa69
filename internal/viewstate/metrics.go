package viewstate

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Fetch outcomes recorded by Metrics.
const (
	OutcomeApplied = "applied"
	OutcomeFailed  = "failed"
	OutcomeStale   = "stale"
)

// Metrics exposes Prometheus collectors for background screen fetches.
type Metrics struct {
	fetches  *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the fetch metrics against registerer. When the registerer is nil the
// default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments a single fetch.
type Tracker struct {
	metrics *Metrics
	screen  string
	start   time.Time
}

// Track starts a tracker for screen.
func (m *Metrics) Track(screen string) *Tracker {
	if m != nil {
		m.inflight.WithLabelValues(screen).Inc()
	}
	return &Tracker{metrics: m, screen: screen, start: time.Now()}
}

// End records the outcome of the fetch.
func (t *Tracker) End(outcome string) {
	if t == nil || t.metrics == nil {
		return
	}
	t.metrics.inflight.WithLabelValues(t.screen).Dec()
	t.metrics.fetches.WithLabelValues(t.screen, outcome).Inc()
	t.metrics.duration.WithLabelValues(t.screen).Observe(time.Since(t.start).Seconds())
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	fetches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ghg_screen_fetches_total",
		Help: "Screen fetches partitioned by screen and outcome.",
	}, []string{"screen", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ghg_screen_fetch_duration_seconds",
		Help:    "Time from issuing a screen fetch to applying or discarding it.",
		Buckets: prometheus.DefBuckets,
	}, []string{"screen"})
	inflight := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ghg_screen_fetches_inflight",
		Help: "Screen fetches currently waiting on the emissions API.",
	}, []string{"screen"})
	registerer.MustRegister(fetches, duration, inflight)
	return &Metrics{fetches: fetches, duration: duration, inflight: inflight}
}
