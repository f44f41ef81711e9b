package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks calendar cache effectiveness and provider health.
type Metrics struct {
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	ProviderErrors prometheus.Counter
	LookupDuration prometheus.Histogram
}

// New creates and registers calendar metrics.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_calendar_cache_hits_total",
			Help: "Holiday calendar lookups served from cache.",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_calendar_cache_misses_total",
			Help: "Holiday calendar lookups that reached the provider.",
		}),
		ProviderErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_calendar_provider_errors_total",
			Help: "Failed holiday calendar provider calls.",
		}),
		LookupDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseflow_calendar_lookup_duration_seconds",
			Help:    "Duration of holiday calendar resolution.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) RecordHit() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

func (m *Metrics) RecordMiss() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

func (m *Metrics) RecordProviderError() {
	if m == nil {
		return
	}
	m.ProviderErrors.Inc()
}

func (m *Metrics) ObserveLookup(seconds float64) {
	if m == nil {
		return
	}
	m.LookupDuration.Observe(seconds)
}
