// Package metrics exposes Prometheus counters for valuations, assessments and
// the HTTP layer.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
)

const namespace = "autovalue"

var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultVisionDurationBuckets = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
)

// Metrics holds every collector of the service on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	ValuationsTotal       *prometheus.CounterVec
	AssessmentsTotal      *prometheus.CounterVec
	SanitizerRepairsTotal *prometheus.CounterVec
	VisionRequestsTotal   *prometheus.CounterVec
	VisionRequestDuration prometheus.Histogram
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ValuationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "valuations_total",
			Help:      "Vehicle valuations computed.",
		}, []string{"premium"}),
		AssessmentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessments_total",
			Help:      "Damage assessments by triage decision and policy rule.",
		}, []string{"decision", "rule"}),
		SanitizerRepairsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sanitizer_repairs_total",
			Help:      "Damage item fields replaced or corrected during sanitizing.",
		}, []string{"field"}),
		VisionRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vision_requests_total",
			Help:      "Vision model calls by result.",
		}, []string{"result"}),
		VisionRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "vision_request_duration_seconds",
			Help:      "Vision model call latency.",
			Buckets:   DefaultVisionDurationBuckets,
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   DefaultHTTPDurationBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.ValuationsTotal,
		m.AssessmentsTotal,
		m.SanitizerRepairsTotal,
		m.VisionRequestsTotal,
		m.VisionRequestDuration,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveValuation(r dal.ValuationResult) {
	m.ValuationsTotal.WithLabelValues(strconv.FormatBool(r.IsPremiumBrand)).Inc()
}

func (m *Metrics) ObserveAssessment(d dal.Decision, rule string) {
	m.AssessmentsTotal.WithLabelValues(string(d), rule).Inc()
}

func (m *Metrics) ObserveRepair(field string) {
	m.SanitizerRepairsTotal.WithLabelValues(field).Inc()
}

func (m *Metrics) ObserveVision(err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.VisionRequestsTotal.WithLabelValues(result).Inc()
	m.VisionRequestDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
