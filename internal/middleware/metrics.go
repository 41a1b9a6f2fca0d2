package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors exported on /metrics.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal  *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	snapshotsServed    *prometheus.CounterVec
	anomaliesReported  *prometheus.CounterVec
	servicesRegistered prometheus.Counter
}

// NewMetrics registers the collectors on a private registry. services reports
// the current directory size.
func NewMetrics(services func() int) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)
	m := &Metrics{
		registry: reg,
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		snapshotsServed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_snapshots_served_total",
			Help: "Metrics snapshots served, by origin",
		}, []string{"origin"}),
		anomaliesReported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_anomalies_reported_total",
			Help: "Snapshots served carrying an anomaly, by severity",
		}, []string{"severity"}),
		servicesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_services_registered_total",
			Help: "Services added to the directory since start",
		}),
	}
	if services != nil {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sentinel_services",
			Help: "Services currently in the directory",
		}, func() float64 { return float64(services()) })
	}
	return m
}

// Middleware records request counts and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
		m.httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// ObserveSnapshot counts a served snapshot. severity is empty when the
// snapshot carries no anomaly.
func (m *Metrics) ObserveSnapshot(synthetic bool, severity string) {
	origin := "telemetry"
	if synthetic {
		origin = "synthetic"
	}
	m.snapshotsServed.WithLabelValues(origin).Inc()
	if severity != "" {
		m.anomaliesReported.WithLabelValues(severity).Inc()
	}
}

// ServiceRegistered counts a directory addition.
func (m *Metrics) ServiceRegistered() {
	m.servicesRegistered.Inc()
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return gin.WrapH(h)
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
