// Package metrics exposes Prometheus counters for predictions, matches and HTTP traffic.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aims"

// Prediction kinds
const (
	KindClassification = "classification"
	KindDetection      = "detection"
	KindSales          = "sales"
)

// Metrics holds the service's collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	predictionsTotal   *prometheus.CounterVec
	predictionErrors   *prometheus.CounterVec
	predictionDuration *prometheus.HistogramVec
	matchesTotal       *prometheus.CounterVec
	cacheLookups       *prometheus.CounterVec
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		predictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Total number of model predictions",
			},
			[]string{"kind"},
		),
		predictionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_errors_total",
				Help:      "Total number of failed model predictions",
			},
			[]string{"kind"},
		),
		predictionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "prediction_duration_seconds",
				Help:      "Time spent waiting on a model",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
			},
			[]string{"kind"},
		),
		matchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "inventory_matches_total",
				Help:      "Inventory items matched against predictions",
			},
			[]string{"matcher", "match_type"}, // matcher: classification, detection
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "prediction_cache_lookups_total",
				Help:      "Prediction cache lookups",
			},
			[]string{"result"}, // hit, miss
		),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Time taken for HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.predictionsTotal,
		m.predictionErrors,
		m.predictionDuration,
		m.matchesTotal,
		m.cacheLookups,
		m.httpRequestsTotal,
		m.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.HTTPErrorOnError,
	})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordPrediction counts one model call of kind. A nil receiver is a no-op.
func (m *Metrics) RecordPrediction(kind string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.predictionsTotal.WithLabelValues(kind).Inc()
	m.predictionDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if err != nil {
		m.predictionErrors.WithLabelValues(kind).Inc()
	}
}

// RecordMatch counts one matched inventory item
func (m *Metrics) RecordMatch(matcher, matchType string) {
	if m == nil {
		return
	}
	m.matchesTotal.WithLabelValues(matcher, matchType).Inc()
}

// RecordCacheLookup counts a prediction cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordHTTPRequest counts one served request. path should be the route
// template, not the raw URL, to keep label cardinality bounded.
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, statusCode).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
