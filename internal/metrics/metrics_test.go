package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveQuery(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveQuery("ListBackends", 5*time.Millisecond, "", nil)
	m.ObserveQuery("ListBackends", 5*time.Millisecond, "connection", errors.New("refused"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queryErrors.WithLabelValues("ListBackends", "connection")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.queryDuration))
}

func TestCacheCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CacheHit("backends")
	m.CacheHit("backends")
	m.CacheMiss("channels")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("backends")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheMisses.WithLabelValues("channels")))
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveRequest("/api/backends", 200, time.Millisecond)
	m.ObserveRequest("/api/backends", 503, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/backends", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsTotal.WithLabelValues("/api/backends", "5xx")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveQuery("op", time.Second, "query", errors.New("x"))
		m.CacheHit("backends")
		m.CacheMiss("backends")
		m.ObserveRequest("/", 200, time.Second)
	})
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "4xx", statusClass(404))
	assert.Equal(t, "999", statusClass(999))
}
