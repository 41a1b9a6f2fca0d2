package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"sentinel/internal/models"
)

type fakeUsers map[string]*models.User

func (f fakeUsers) Lookup(_ context.Context, login string) (*models.User, error) {
	if u, ok := f[login]; ok {
		return u, nil
	}
	for _, u := range f {
		if u.Email == login {
			return u, nil
		}
	}
	return nil, errors.New("not found")
}

func newTestAuth() *AuthService {
	return NewAuthService(AuthOptions{Secret: "test-secret", TokenExpiry: time.Minute})
}

func TestTokenRoundTrip(t *testing.T) {
	a := newTestAuth()
	tok, err := a.GenerateToken("alice")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := a.ValidateToken(tok)
	if err != nil || claims.Username != "alice" || claims.Subject != "alice" {
		t.Fatalf("claims=%+v err=%v", claims, err)
	}

	other := NewAuthService(AuthOptions{Secret: "other"})
	if _, err := other.ValidateToken(tok); err == nil {
		t.Fatal("token accepted with wrong secret")
	}
}

func TestTokenExpires(t *testing.T) {
	a := newTestAuth()
	start := time.Now()
	a.now = func() time.Time { return start }
	tok, _ := a.GenerateToken("alice")
	a.now = func() time.Time { return start.Add(2 * time.Minute) }
	if _, err := a.ValidateToken(tok); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuth()
	hash, err := a.HashPassword("secret123")
	if err != nil {
		t.Fatal(err)
	}
	users := fakeUsers{
		"alice": {Username: "alice", Email: "alice@example.com", HashedPassword: hash, IsActive: true},
		"bob":   {Username: "bob", Email: "bob@example.com", HashedPassword: hash},
	}
	ctx := context.Background()
	if _, err := a.Authenticate(ctx, users, "alice", "secret123"); err != nil {
		t.Fatalf("username login: %v", err)
	}
	if _, err := a.Authenticate(ctx, users, "alice@example.com", "secret123"); err != nil {
		t.Fatalf("email login: %v", err)
	}
	if _, err := a.Authenticate(ctx, users, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, users, "nobody", "secret123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := a.Authenticate(ctx, users, "bob", "secret123"); !errors.Is(err, ErrInactiveUser) {
		t.Fatalf("expected inactive, got %v", err)
	}
}

func TestRequireAPIAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := newTestAuth()
	users := fakeUsers{
		"alice": {Username: "alice", IsActive: true},
		"root":  {Username: "root", IsActive: true, IsSuperuser: true},
	}
	r := gin.New()
	api := r.Group("/api", a.RequireAPIAuth(users))
	api.GET("/me", func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"username": u.Username})
	})
	api.GET("/admin", RequireSuperuser(), func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(path, token string, cookie bool) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.1.1.1:1234"
		if token != "" {
			if cookie {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
			} else {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	aliceTok, _ := a.GenerateToken("alice")
	rootTok, _ := a.GenerateToken("root")
	if code := do("/api/me", aliceTok, false); code != http.StatusOK {
		t.Fatalf("bearer: %d", code)
	}
	if code := do("/api/me", aliceTok, true); code != http.StatusOK {
		t.Fatalf("cookie: %d", code)
	}
	if code := do("/api/admin", aliceTok, false); code != http.StatusForbidden {
		t.Fatalf("non-superuser admin: %d", code)
	}
	if code := do("/api/admin", rootTok, false); code != http.StatusOK {
		t.Fatalf("superuser admin: %d", code)
	}
	if code := do("/api/me", "", false); code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", code)
	}
}

func TestRequireAPIAuthLockout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := newTestAuth()
	r := gin.New()
	r.GET("/api/me", a.RequireAPIAuth(fakeUsers{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	var codes []int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.RemoteAddr = "10.2.2.2:1234"
		req.Header.Set("Authorization", "Bearer garbage")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	want := []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("attempt %d: got %d want %d (all %v)", i, codes[i], want[i], codes)
		}
	}
}

func TestAuthCookieAttributes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a := NewAuthService(AuthOptions{Secret: "s", CookieSameSite: "none"})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	a.SetAuthCookie(c, "tok")

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	ck := cookies[0]
	if !ck.HttpOnly || ck.Secure || ck.SameSite != http.SameSiteLaxMode {
		t.Fatalf("unexpected cookie attrs: %+v", ck)
	}
	if ck.MaxAge != int(DefaultTokenExpiry.Seconds()) {
		t.Fatalf("max age %d", ck.MaxAge)
	}
}
