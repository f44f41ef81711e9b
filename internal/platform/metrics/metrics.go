// Package metrics holds the process-level Prometheus metrics shared by
// handlers and services. Module-specific metrics (calendar cache) live next
// to their module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all shared Prometheus metrics for the application.
type Metrics struct {
	TransitionsTotal     *prometheus.CounterVec
	TransitionDuration   prometheus.Histogram
	RFICyclesTotal       prometheus.Counter
	TasksCompletedTotal  prometheus.Counter
	SLABandTotal         *prometheus.CounterVec
	AuditPublishFailures prometheus.Counter
	HTTPRequestDuration  *prometheus.HistogramVec
}

// New creates and registers all shared Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_transitions_total",
			Help: "Workflow transitions by source, target and outcome.",
		}, []string{"from", "to", "outcome"}),
		TransitionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "caseflow_transition_duration_seconds",
			Help:    "End-to-end duration of the transition critical section.",
			Buckets: prometheus.DefBuckets,
		}),
		RFICyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_rfi_cycles_total",
			Help: "Information request cycles issued.",
		}),
		TasksCompletedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_tasks_completed_total",
			Help: "Assessment tasks reaching a terminal status.",
		}),
		SLABandTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_sla_band_total",
			Help: "SLA band observed at transition time.",
		}, []string{"band"}),
		AuditPublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "caseflow_audit_publish_failures_total",
			Help: "Audit or notification events that could not be emitted.",
		}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseflow_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// ObserveTransition records a transition attempt. Outcome is "success" or the
// error code.
func (m *Metrics) ObserveTransition(from, to, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(from, to, outcome).Inc()
	m.TransitionDuration.Observe(took.Seconds())
}

// ObserveSLABand records the band a request landed in after recompute.
func (m *Metrics) ObserveSLABand(band string) {
	if m == nil {
		return
	}
	m.SLABandTotal.WithLabelValues(band).Inc()
}

// IncRFICycles records an issued information request.
func (m *Metrics) IncRFICycles() {
	if m == nil {
		return
	}
	m.RFICyclesTotal.Inc()
}

// IncTasksCompleted records a task reaching a terminal status.
func (m *Metrics) IncTasksCompleted() {
	if m == nil {
		return
	}
	m.TasksCompletedTotal.Inc()
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(route, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestDuration.WithLabelValues(route, status).Observe(took.Seconds())
}

// IncAuditPublishFailures records a dropped audit/notification event.
func (m *Metrics) IncAuditPublishFailures() {
	if m == nil {
		return
	}
	m.AuditPublishFailures.Inc()
}
