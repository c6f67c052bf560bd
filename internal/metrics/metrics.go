// Package metrics holds the Prometheus collectors for the wizard and listings.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	Registry           *prometheus.Registry
	WizardTransitions  *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	ListingViews       prometheus.Counter
	ViewEventsDropped  prometheus.Counter
	HTTPDuration       *prometheus.HistogramVec
}

// New constructs and registers all collectors on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_transitions_total",
			Help: "Wizard actions applied, by kind and action.",
		},
		[]string{"kind", "action"},
	)
	validation := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_validation_failures_total",
			Help: "Step commits rejected with field errors, by step and field.",
		},
		[]string{"step", "field"},
	)
	submissions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wizard_submissions_total",
			Help: "Listing submissions by kind and result.",
		},
		[]string{"kind", "result"},
	)
	views := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_views_total",
		Help: "Listing detail views enqueued.",
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "listing_view_events_dropped_total",
		Help: "View events dropped because the queue was full.",
	})

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Request latency by method and status class.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "code"},
	)

	registry.MustRegister(transitions, validation, submissions, views, dropped, httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		Registry:           registry,
		WizardTransitions:  transitions,
		ValidationFailures: validation,
		Submissions:        submissions,
		ListingViews:       views,
		ViewEventsDropped:  dropped,
		HTTPDuration:       httpDuration,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncTransition(kind, action string) {
	if m == nil {
		return
	}
	m.WizardTransitions.WithLabelValues(kind, action).Inc()
}

func (m *Metrics) IncValidationFailure(step, field string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(step, field).Inc()
}

func (m *Metrics) IncSubmission(kind, result string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) IncView() {
	if m == nil {
		return
	}
	m.ListingViews.Inc()
}

func (m *Metrics) IncDropped() {
	if m == nil {
		return
	}
	m.ViewEventsDropped.Inc()
}

// ObserveRequest records latency under the status class ("2xx", "4xx", ...)
// to keep label cardinality fixed.
func (m *Metrics) ObserveRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, strconv.Itoa(status/100)+"xx").Observe(d.Seconds())
}
