// Package metrics exposes Prometheus instrumentation for store queries,
// the lookup cache and the HTTP API. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	queryDuration   *prometheus.HistogramVec
	queryErrors     *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mythvault_query_duration_seconds",
			Help:    "Duration of PVR database queries by operation",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
		queryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mythvault_query_errors_total",
			Help: "Failed PVR database queries by operation and kind",
		}, []string{"op", "kind"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mythvault_cache_hits_total",
			Help: "Lookup cache hits by entity",
		}, []string{"entity"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mythvault_cache_misses_total",
			Help: "Lookup cache misses by entity",
		}, []string{"entity"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mythvault_http_requests_total",
			Help: "HTTP requests by route and status class",
		}, []string{"route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mythvault_http_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(m.queryDuration, m.queryErrors, m.cacheHits, m.cacheMisses,
		m.requestsTotal, m.requestDuration)
	return m
}

// ObserveQuery records one query. kind classifies a failure ("connection",
// "timeout", "query"); it is ignored when err is nil.
func (m *Metrics) ObserveQuery(op string, d time.Duration, kind string, err error) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		m.queryErrors.WithLabelValues(op, kind).Inc()
	}
}

func (m *Metrics) CacheHit(entity string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(entity).Inc()
}

func (m *Metrics) CacheMiss(entity string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(entity).Inc()
}

func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return strconv.Itoa(code)
	}
	return strconv.Itoa(code/100) + "xx"
}
