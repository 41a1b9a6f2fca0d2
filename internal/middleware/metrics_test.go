package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddlewareAndExposition(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(func() int { return 3 })
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/services/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", m.Handler())

	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/services/"+id, nil))
	}
	if got := testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/api/services/:id", "200")); got != 2 {
		t.Fatalf("request counter = %v", got)
	}

	m.ObserveSnapshot(true, "")
	m.ObserveSnapshot(false, "high")
	m.ServiceRegistered()
	if got := testutil.ToFloat64(m.snapshotsServed.WithLabelValues("synthetic")); got != 1 {
		t.Fatalf("synthetic counter = %v", got)
	}
	if got := testutil.ToFloat64(m.anomaliesReported.WithLabelValues("high")); got != 1 {
		t.Fatalf("anomaly counter = %v", got)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := w.Body.String()
	for _, want := range []string{"sentinel_services 3", "sentinel_services_registered_total 1", "http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
