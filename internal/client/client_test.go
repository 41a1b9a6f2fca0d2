package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel/internal/models"
	"sentinel/internal/session"

	"github.com/gin-gonic/gin"
)

func newFakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	authed := func(c *gin.Context) {
		if c.GetHeader("Authorization") != "Bearer tok" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Could not validate credentials"})
			return
		}
		c.Next()
	}
	r.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, models.SystemStatus{Status: "operational", Timestamp: time.Now(), Version: "0.1.0"})
	})
	r.POST("/api/auth/login", func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		if body["password"] != "secret123" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect username or password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"access_token": "tok", "token_type": "bearer", "user": gin.H{"username": body["username"]}})
	})
	r.POST("/api/auth/logout", authed, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "Logged out"}) })
	r.GET("/api/auth/me", authed, func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"username": "alice"}) })
	r.GET("/api/services", authed, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"services": []models.Service{{ID: "1", Name: "api", Port: 80}}, "count": 1})
	})
	r.POST("/api/services", authed, func(c *gin.Context) {
		var body map[string]string
		_ = c.ShouldBindJSON(&body)
		if body["port"] == "0" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": gin.H{"port": "Port must be between 1 and 65535"}})
			return
		}
		c.JSON(http.StatusCreated, models.Service{ID: "new", Name: body["name"], Port: 8080})
	})
	r.GET("/api/services/:id/snapshot", authed, func(c *gin.Context) {
		c.JSON(http.StatusOK, models.Snapshot{Record: models.MetricsRecord{App: "service-" + c.Param("id")}, Synthetic: true})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestStatusIsPublic(t *testing.T) {
	c := New(newFakeAPI(t).URL, nil)
	st, err := c.Status(context.Background())
	if err != nil || st.Status != "operational" {
		t.Fatalf("status=%+v err=%v", st, err)
	}
}

func TestLoginStoresToken(t *testing.T) {
	c := New(newFakeAPI(t).URL, nil)
	ctx := context.Background()

	if _, err := c.Services(ctx); err == nil {
		t.Fatal("services succeeded without login")
	}
	creds, err := c.Login(ctx, "alice", "secret123")
	if err != nil || creds.AccessToken != "tok" || creds.User.Username != "alice" {
		t.Fatalf("login creds=%+v err=%v", creds, err)
	}
	services, err := c.Services(ctx)
	if err != nil || len(services) != 1 {
		t.Fatalf("services=%v err=%v", services, err)
	}
	snap, err := c.Snapshot(ctx, "x")
	if err != nil || !snap.Synthetic || snap.Record.App != "service-x" {
		t.Fatalf("snapshot=%+v err=%v", snap, err)
	}
	if err := c.Logout(ctx, c.Token()); err != nil || c.Token() != "" {
		t.Fatalf("logout err=%v token=%q", err, c.Token())
	}
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	c := New(newFakeAPI(t).URL, nil)
	ctx := context.Background()

	_, err := c.Login(ctx, "alice", "wrong")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Incorrect username or password" {
		t.Fatalf("unexpected error %#v", err)
	}

	c.SetToken("tok")
	_, err = c.AddService(ctx, "api", "10.0.0.1", "0", "")
	if !errors.As(err, &apiErr) || apiErr.Details["port"] == "" {
		t.Fatalf("expected port details, got %#v", err)
	}
	svc, err := c.AddService(ctx, "api", "10.0.0.1", "8080", "")
	if err != nil || svc.ID != "new" {
		t.Fatalf("add: %+v %v", svc, err)
	}
}

func TestClientBacksSessionHolder(t *testing.T) {
	c := New(newFakeAPI(t).URL, nil)
	h := session.NewHolder(c)
	ctx := context.Background()

	err := h.Login(ctx, "alice", "bad")
	if err == nil || err.Error() != "Incorrect username or password" {
		t.Fatalf("expected verbatim message, got %v", err)
	}
	if err := h.Login(ctx, "alice", "secret123"); err != nil {
		t.Fatal(err)
	}
	if !h.IsAuthenticated() {
		t.Fatal("not authenticated")
	}
	if err := h.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	if err := h.Logout(ctx); err != nil || h.IsAuthenticated() {
		t.Fatalf("logout err=%v", err)
	}
}
