// Package metrics holds the Prometheus collectors for ingestion, scheduler
// jobs, notification dispatch, and HTTP traffic.
//
// Metrics:
//   - pledge_commitments_created_total{category,priority}
//   - pledge_extraction_failures_total
//   - pledge_job_runs_total{job,outcome}
//   - pledge_job_duration_seconds{job}
//   - pledge_dispatch_total{kind,outcome}
//   - pledge_http_requests_total{route,status}
//   - pledge_http_request_duration_seconds{route}
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/pledge/pkg/middleware"
	"github.com/JaimeStill/pledge/pkg/routes"
)

const namespace = "pledge"

// Outcome labels.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics groups every collector the service exports. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	CommitmentsCreated *prometheus.CounterVec
	ExtractionFailures prometheus.Counter
	JobRuns            *prometheus.CounterVec
	JobDuration        *prometheus.HistogramVec
	Dispatches         *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CommitmentsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commitments_created_total",
				Help:      "Commitments persisted from ingested transcripts.",
			},
			[]string{"category", "priority"},
		),
		ExtractionFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "extraction_failures_total",
				Help:      "Transcripts whose inference call or output parsing failed.",
			},
		),
		JobRuns: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Scheduler job runs by outcome.",
			},
			[]string{"job", "outcome"},
		),
		JobDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Scheduler job run duration.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"job"},
		),
		Dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Notification dispatch attempts by kind and outcome.",
			},
			[]string{"kind", "outcome"},
		),
		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route template and status code.",
			},
			[]string{"route", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route template.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Registry exposes the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Created records a persisted commitment.
func (m *Metrics) Created(category, priority string) {
	if m == nil {
		return
	}
	m.CommitmentsCreated.WithLabelValues(category, priority).Inc()
}

// ExtractionFailed records a failed extraction.
func (m *Metrics) ExtractionFailed() {
	if m == nil {
		return
	}
	m.ExtractionFailures.Inc()
}

// JobRun records one scheduler job run.
func (m *Metrics) JobRun(job string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, outcome(err)).Inc()
	m.JobDuration.WithLabelValues(job).Observe(d.Seconds())
}

// Dispatched records one notification attempt.
func (m *Metrics) Dispatched(kind string, err error) {
	if m == nil {
		return
	}
	m.Dispatches.WithLabelValues(kind, outcome(err)).Inc()
}

// Wrap returns a routes.Wrapper that labels request counts and latency by
// the registered route pattern.
func (m *Metrics) Wrap() routes.Wrapper {
	return func(pattern string, next http.HandlerFunc) http.HandlerFunc {
		if m == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := middleware.NewStatusRecorder(w)
			next(rec, r)

			m.HTTPRequests.WithLabelValues(pattern, strconv.Itoa(rec.Status)).Inc()
			m.HTTPDuration.WithLabelValues(pattern).Observe(time.Since(start).Seconds())
		}
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeFailed
	}
	return OutcomeOK
}
