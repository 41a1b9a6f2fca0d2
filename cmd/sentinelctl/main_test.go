package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sentinel/internal/models"

	"github.com/gin-gonic/gin"
)

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.SystemStatus{Status: "operational", Version: "0.1.0", Timestamp: time.Now()})
	})
	r.GET("/api/services", func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer tok" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"services": []models.Service{
			{ID: "1", Name: "Payments", IP: "10.0.0.1", Port: 8443, Status: models.StatusWarning, Metrics: models.ServiceMetrics{Uptime: 99.5}},
		}})
	})
	r.POST("/api/services", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": gin.H{"port": "Port must be between 1 and 65535"}})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestRunStatusAndServices(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	srv := fakeServer(t)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"-server", srv.URL, "status"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "operational (version 0.1.0)") {
		t.Fatalf("status output %q", out.String())
	}

	out.Reset()
	if err := run(context.Background(), []string{"-server", srv.URL, "-token", "tok", "services"}, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Payments") || !strings.Contains(out.String(), "Warning") {
		t.Fatalf("services output %q", out.String())
	}

	err := run(context.Background(), []string{"-server", srv.URL, "services"}, &out)
	if err == nil || err.Error() != "Could not validate credentials" {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestRunAddShowsValidationDetails(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	srv := fakeServer(t)
	err := run(context.Background(), []string{"-server", srv.URL, "-token", "tok", "add", "api", "10.0.0.1", "0"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "Port must be between 1 and 65535") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRunRejectsUnknownCommand(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	var out bytes.Buffer
	if err := run(context.Background(), []string{"-server", "http://127.0.0.1:1", "bogus"}, &out); err == nil {
		t.Fatal("expected error")
	}
	if err := run(context.Background(), nil, &out); err == nil {
		t.Fatal("expected missing command error")
	}
}
