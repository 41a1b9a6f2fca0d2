package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"sentinel/internal/models"
)

const (
	CookieName = "sentinel_token"

	// Context keys set by RequireAPIAuth.
	ContextUsername = "username"
	ContextUser     = "user"

	DefaultTokenExpiry = 30 * time.Minute
)

var (
	ErrInvalidCredentials = errors.New("Incorrect username or password")
	ErrInactiveUser       = errors.New("Inactive user")
	ErrInvalidToken       = errors.New("Could not validate credentials")
)

// UserLookup resolves a login (username or email) to a stored user.
type UserLookup interface {
	Lookup(ctx context.Context, login string) (*models.User, error)
}

type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// AuthOptions configures token signing and cookie attributes.
type AuthOptions struct {
	Secret            string
	TokenExpiry       time.Duration
	CookieForceSecure bool
	CookieSameSite    string
}

type AuthService struct {
	secret      []byte
	expiry      time.Duration
	forceSecure bool
	sameSite    string
	now         func() time.Time

	mu          sync.Mutex
	apiFailures map[string]*apiFailure
}

type apiFailure struct {
	count        int
	lastAttempt  time.Time
	lockoutUntil time.Time
}

func NewAuthService(opts AuthOptions) *AuthService {
	expiry := opts.TokenExpiry
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &AuthService{
		secret:      []byte(opts.Secret),
		expiry:      expiry,
		forceSecure: opts.CookieForceSecure,
		sameSite:    strings.ToLower(strings.TrimSpace(opts.CookieSameSite)),
		now:         time.Now,
		apiFailures: make(map[string]*apiFailure),
	}
}

// TokenExpiry is the lifetime of issued access tokens.
func (a *AuthService) TokenExpiry() time.Duration { return a.expiry }

func (a *AuthService) HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func (a *AuthService) CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Authenticate verifies login (username or email) and password against users.
func (a *AuthService) Authenticate(ctx context.Context, users UserLookup, login, password string) (*models.User, error) {
	user, err := users.Lookup(ctx, login)
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	if !a.CheckPassword(password, user.HashedPassword) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (a *AuthService) GenerateToken(username string) (string, error) {
	now := a.now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   username,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Username != "" {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Helper to detect if current request is effectively HTTPS (behind proxy or direct)
func requestIsSecure(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(c.GetHeader("X-Forwarded-Proto"), "https")
}

func (a *AuthService) cookieShouldBeSecure(c *gin.Context) bool {
	return a.forceSecure || requestIsSecure(c)
}

func (a *AuthService) resolveSameSite(secure bool) http.SameSite {
	switch a.sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		// SameSite=None requires Secure.
		if secure {
			return http.SameSiteNoneMode
		}
		return http.SameSiteLaxMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteLaxMode
	}
}

// SetAuthCookie stores the access token in an HttpOnly cookie.
func (a *AuthService) SetAuthCookie(c *gin.Context, token string) {
	secure := a.cookieShouldBeSecure(c)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: a.resolveSameSite(secure),
		MaxAge:   int(a.expiry.Seconds()),
	})
}

// ClearAuthCookie expires the auth cookie using the same attributes.
func (a *AuthService) ClearAuthCookie(c *gin.Context) {
	secure := a.cookieShouldBeSecure(c)
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: a.resolveSameSite(secure),
		MaxAge:   -1,
	})
}

// TokenFromRequest prefers the Authorization header and falls back to the cookie.
func TokenFromRequest(c *gin.Context) string {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookieToken, err := c.Cookie(CookieName); err == nil {
		return cookieToken
	}
	return ""
}

// RequireAPIAuth validates the access token, loads the user and stores both
// under ContextUsername and ContextUser. Repeated failures from one client IP
// lock it out with 429.
func (a *AuthService) RequireAPIAuth(users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := a.apiFailureKey(c)
		if retryAfter, locked := a.checkAPILockout(key); locked {
			abortLocked(c, retryAfter)
			return
		}

		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			a.fail(c, key, "Authorization header or cookie required")
			return
		}

		claims, err := a.ValidateToken(tokenString)
		if err != nil {
			a.fail(c, key, ErrInvalidToken.Error())
			return
		}

		user, err := users.Lookup(c.Request.Context(), claims.Username)
		if err != nil || user == nil {
			a.fail(c, key, ErrInvalidToken.Error())
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": ErrInactiveUser.Error()})
			return
		}

		a.clearAPIFailures(key)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextUser, user)
		c.Next()
	}
}

// RequireSuperuser must run after RequireAPIAuth.
func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok || !user.IsSuperuser {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Not enough permissions"})
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user stored by RequireAPIAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

func (a *AuthService) fail(c *gin.Context, key, message string) {
	if retryAfter, locked := a.recordAPIFailure(key); locked {
		abortLocked(c, retryAfter)
		return
	}
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

func abortLocked(c *gin.Context, retryAfter time.Duration) {
	c.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many unauthorized attempts",
		"retry_after": int(retryAfter.Seconds()),
	})
}

func (a *AuthService) apiFailureKey(c *gin.Context) string {
	return c.ClientIP()
}

func (a *AuthService) checkAPILockout(key string) (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rec, ok := a.apiFailures[key]
	if !ok {
		return 0, false
	}
	now := a.now()
	if rec.lockoutUntil.After(now) {
		return rec.lockoutUntil.Sub(now), true
	}
	return 0, false
}

func (a *AuthService) recordAPIFailure(key string) (time.Duration, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.now()
	rec, ok := a.apiFailures[key]
	if !ok {
		rec = &apiFailure{}
		a.apiFailures[key] = rec
	}

	if rec.lockoutUntil.After(now) {
		return rec.lockoutUntil.Sub(now), true
	}

	if now.Sub(rec.lastAttempt) > 5*time.Minute {
		rec.count = 0
	}

	rec.lastAttempt = now
	rec.count++

	if rec.count >= 3 {
		lockout := time.Duration(rec.count) * 15 * time.Second
		if lockout > 2*time.Minute {
			lockout = 2 * time.Minute
		}
		rec.lockoutUntil = now.Add(lockout)
		rec.count = 0
		return lockout, true
	}

	return 0, false
}

func (a *AuthService) clearAPIFailures(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.apiFailures, key)
}
