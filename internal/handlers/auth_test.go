package handlers

import (
	"net/http"
	"strings"
	"testing"

	"sentinel/internal/middleware"
	"sentinel/internal/models"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	reg := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "alice@example.com", "username": "alice", "password": "secret123", "full_name": "Alice A",
	})
	expectStatus(t, reg, http.StatusCreated)
	created := decode[models.User](t, reg)
	if created.ID == 0 || created.Username != "alice" || created.IsSuperuser || !created.IsActive {
		t.Fatalf("unexpected user %+v", created)
	}
	if strings.Contains(reg.Body.String(), "secret123") {
		t.Fatal("password leaked in response")
	}

	for _, login := range []string{"alice", "alice@example.com"} {
		w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": login, "password": "secret123"})
		expectStatus(t, w, http.StatusOK)
		tok := decode[TokenResponse](t, w)
		if tok.AccessToken == "" || tok.TokenType != "bearer" || tok.User == nil || tok.User.Username != "alice" {
			t.Fatalf("login %q: unexpected response %+v", login, tok)
		}
		me := env.do(t, http.MethodGet, "/api/auth/me", tok.AccessToken, nil)
		expectStatus(t, me, http.StatusOK)
		if decode[models.User](t, me).Username != "alice" {
			t.Fatalf("me returned wrong user: %s", me.Body.String())
		}
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "bob", "secret123", false)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "bob", "password": "nope"})
	expectStatus(t, w, http.StatusUnauthorized)
	body := decode[map[string]any](t, w)
	if body["error"] != middleware.ErrInvalidCredentials.Error() {
		t.Fatalf("unexpected error %v", body)
	}

	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "", "password": "x"})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestRegisterDuplicateAndInvalid(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "carol", "secret123", false)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "carol@example.com", "username": "carol", "password": "secret123",
	})
	expectStatus(t, w, http.StatusConflict)

	w = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "carol@example.com", "username": "carol2", "password": "secret123",
	})
	expectStatus(t, w, http.StatusConflict)

	w = env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "not-an-email", "username": "x", "password": "short",
	})
	expectStatus(t, w, http.StatusBadRequest)
	details, _ := decode[map[string]any](t, w)["details"].(map[string]any)
	for _, field := range []string{"email", "username", "password"} {
		if details[field] == nil {
			t.Errorf("missing detail for %s: %v", field, details)
		}
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	env := newTestEnv(t)
	expectStatus(t, env.do(t, http.MethodGet, "/api/services", "", nil), http.StatusUnauthorized)
	expectStatus(t, env.do(t, http.MethodGet, "/api/auth/me", "garbage", nil), http.StatusUnauthorized)
}

func TestUsersRequiresSuperuser(t *testing.T) {
	env := newTestEnv(t)
	userTok := env.createUser(t, "dave", "secret123", false)
	adminTok := env.createUser(t, "root", "secret123", true)

	expectStatus(t, env.do(t, http.MethodGet, "/api/users", userTok, nil), http.StatusForbidden)
	w := env.do(t, http.MethodGet, "/api/users", adminTok, nil)
	expectStatus(t, w, http.StatusOK)
	if got := decode[map[string]any](t, w)["count"]; got != float64(2) {
		t.Fatalf("expected 2 users, got %v", got)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	tok := env.createUser(t, "erin", "secret123", false)
	w := env.do(t, http.MethodPost, "/api/auth/logout", tok, nil)
	expectStatus(t, w, http.StatusOK)
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != middleware.CookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("cookie not cleared: %+v", cookies)
	}
}
