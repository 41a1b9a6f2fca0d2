package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"sentinel/internal/config"
	"sentinel/internal/manager"
	"sentinel/internal/middleware"
	"sentinel/internal/models"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	router  *gin.Engine
	manager *manager.Manager
	auth    *middleware.AuthService
	metrics *middleware.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.RootPath = t.TempDir()
	cfg.SnapshotSeed = 1
	mgr, err := manager.NewManager(cfg)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(mgr.Shutdown)

	auth := middleware.NewAuthService(middleware.AuthOptions{Secret: "handler-test", TokenExpiry: time.Hour})
	metrics := middleware.NewMetrics(mgr.Directory.Len)

	authHandlers := NewAuthHandlers(auth, mgr.Users, mgr.Log)
	profile := NewProfileHandlers(mgr.Users, auth)
	services := NewServiceHandlers(mgr, metrics)
	system := NewSystemHandlers(mgr)

	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/", system.Root)
	r.GET("/health", system.Health)
	r.GET("/readyz", system.Readyz)
	r.GET("/version", system.Version)

	public := r.Group("/api")
	public.GET("/status", system.APIStatus)
	public.GET("/metrics", system.APIMetrics)
	public.POST("/auth/register", authHandlers.APIRegister)
	public.POST("/auth/login", authHandlers.APILogin)

	api := r.Group("/api", auth.RequireAPIAuth(mgr.Users))
	api.GET("/auth/me", authHandlers.APIMe)
	api.POST("/auth/logout", authHandlers.APILogout)
	api.POST("/profile/password", profile.APIChangePassword)
	api.GET("/services", services.APIServices)
	api.POST("/services", services.APICreateService)
	api.GET("/services/:id", services.APIService)
	api.GET("/services/:id/snapshot", services.APISnapshot)
	api.GET("/services/:id/view", services.APIView)
	api.GET("/overview", services.APIOverview)
	api.GET("/events", services.APIEvents)
	api.GET("/users", middleware.RequireSuperuser(), authHandlers.APIUsers)

	return &testEnv{router: r, manager: mgr, auth: auth, metrics: metrics}
}

// createUser stores a user directly and returns a bearer token for it.
func (e *testEnv) createUser(t *testing.T, username, password string, superuser bool) string {
	t.Helper()
	hash, err := e.auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	in := models.UserCreate{Email: username + "@example.com", Username: username, Password: password}
	if _, err := e.manager.Users.CreateUser(context.Background(), in, hash, superuser); err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := e.auth.GenerateToken(username)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

// metricValue returns the first sample of a counter or gauge family.
func (e *testEnv) metricValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := e.metrics.Gatherer().Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name || len(mf.GetMetric()) == 0 {
			continue
		}
		m := mf.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
