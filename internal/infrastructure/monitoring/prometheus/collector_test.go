package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test", Subsystem: "unit"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{}, nil)
	assert.Error(t, err)
	assert.Nil(t, c)
}

func TestNewMetricsCollector_RuntimeCollectors(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace:            "test",
		EnableGoMetrics:      true,
		EnableProcessMetrics: true,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("records_total", "help", "format")
	vec.WithLabelValues("XML_V4").Inc()
	vec.WithLabelValues("XML_V4").Add(2)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_records_total{format="XML_V4"} 3`)
}

func TestRegisterCounter_Idempotent(t *testing.T) {
	c := newTestCollector(t)
	a := c.RegisterCounter("dup_total", "help", "x")
	b := c.RegisterCounter("dup_total", "help", "x")
	a.WithLabelValues("1").Inc()
	b.WithLabelValues("1").Inc()

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_dup_total{x="1"} 2`)
}

func TestRegister_TypeMismatchFallsBackToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("clash", "help")
	g := c.RegisterGauge("clash", "help")
	assert.IsType(t, noopGaugeVec{}, g)
	assert.NotPanics(t, func() { g.WithLabelValues().Set(1) })
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	g := c.RegisterGauge("in_flight", "help", "stage")
	g.WithLabelValues("parse").Set(5)
	g.WithLabelValues("parse").Dec()

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_in_flight{stage="parse"} 4`)
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("latency_seconds", "help", nil, "sink")
	h.WithLabelValues("kafka").Observe(0.2)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_latency_seconds_count{sink="kafka"} 1`)
}

func TestMustRegisterAndUnregister(t *testing.T) {
	c := newTestCollector(t)
	custom := prometheus.NewCounter(prometheus.CounterOpts{Name: "custom_total", Help: "h"})
	c.MustRegister(custom)
	assert.True(t, c.Unregister(custom))
	assert.False(t, c.Unregister(custom))
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent_total", "help", "k").WithLabelValues("v").Inc()
		}()
	}
	wg.Wait()
	assert.Contains(t, scrapeMetrics(t, c), `test_unit_concurrent_total{k="v"} 20`)
}

func TestNoopCollector(t *testing.T) {
	c := NewNoopCollector()
	assert.NotPanics(t, func() {
		c.RegisterCounter("a", "h").WithLabelValues("x").Inc()
		c.RegisterGauge("b", "h").WithLabelValues().Add(1)
		c.RegisterHistogram("c", "h", nil).WithLabelValues().Observe(1)
	})
	assert.False(t, c.Unregister(nil))
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	h := c.RegisterHistogram("timer_seconds", "help", nil)
	timer := NewTimer(h.WithLabelValues())
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()
	assert.Greater(t, d, time.Duration(0))
	assert.Contains(t, scrapeMetrics(t, c), "test_unit_timer_seconds_count 1")

	assert.NotPanics(t, func() { NewTimer(nil).ObserveDuration() })
}

//Personal.AI order the ending
