// Package metrics holds the Prometheus instruments for the serve facade.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the API server.
// 자체 레지스트리를 쓰므로 테스트에서 중복 등록 패닉이 없음
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      prometheus.Histogram
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
}

// New registers and returns all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "swingscan_http_requests_total",
			Help: "HTTP requests served (by route and status)",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "swingscan_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swingscan_run_cache_hits_total",
			Help: "Run CSV cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "swingscan_run_cache_misses_total",
			Help: "Run CSV cache misses (parsed from disk)",
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPDuration,
		m.CacheHits,
		m.CacheMisses,
	)

	return m
}

// Handler serves the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
