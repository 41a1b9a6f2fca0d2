package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"sentinel/internal/manager"
	"sentinel/internal/middleware"
	"sentinel/internal/models"
	"sentinel/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandlers struct {
	authService *middleware.AuthService
	users       *manager.UserStore
	log         *utils.Logger
}

type LoginRequest struct {
	Username string `json:"username" validate:"required,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        *models.User `json:"user"`
}

func NewAuthHandlers(authService *middleware.AuthService, users *manager.UserStore, log *utils.Logger) *AuthHandlers {
	return &AuthHandlers{authService: authService, users: users, log: log}
}

func (h *AuthHandlers) logAuthEvent(format string, args ...interface{}) {
	h.log.Write(fmt.Sprintf(format, args...))
}

// APIRegister creates a regular (non-superuser) account.
func (h *AuthHandlers) APIRegister(c *gin.Context) {
	var req models.UserCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format", "details": err.Error()})
		return
	}
	req.Email = middleware.SanitizeString(req.Email)
	req.Username = middleware.SanitizeString(req.Username)
	req.FullName = middleware.SanitizeString(req.FullName)
	if details := middleware.ValidateStruct(req); details != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
		return
	}

	ctx := c.Request.Context()
	if _, ok := h.users.Get(ctx, req.Username); ok {
		c.JSON(http.StatusConflict, gin.H{"error": "Username already registered"})
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	user, err := h.users.CreateUser(ctx, req, hash, false)
	switch {
	case errors.Is(err, manager.ErrUserExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Email or username already registered"})
		return
	case err != nil:
		h.logAuthEvent("Registration failed for '%s': %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	h.logAuthEvent("Registered user '%s' from %s", user.Username, c.ClientIP())
	ToastSuccess(c, "Account created", "Welcome, "+user.DisplayName())
	c.JSON(http.StatusCreated, user)
}

// APILogin handles JSON-based authentication requests. The username field
// also accepts an email address.
func (h *AuthHandlers) APILogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	req.Username = middleware.SanitizeString(req.Username)
	if details := middleware.ValidateStruct(req); details != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), h.users, req.Username, req.Password)
	if err != nil {
		h.logAuthEvent("API login failed for '%s' from %s: %v", req.Username, c.ClientIP(), err)
		status := http.StatusUnauthorized
		if errors.Is(err, middleware.ErrInactiveUser) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authService.GenerateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate authentication token"})
		return
	}
	h.logAuthEvent("API login successful for user '%s' from %s", user.Username, c.ClientIP())

	h.authService.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(h.authService.TokenExpiry().Seconds()),
		User:        user,
	})
}

// APIMe returns the authenticated user.
func (h *AuthHandlers) APIMe(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": middleware.ErrInvalidToken.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// APILogout clears the auth cookie. Tokens are stateless and simply expire.
func (h *AuthHandlers) APILogout(c *gin.Context) {
	h.authService.ClearAuthCookie(c)
	h.logAuthEvent("User '%s' logged out", c.GetString(middleware.ContextUsername))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// APIUsers lists every account. Superuser only.
func (h *AuthHandlers) APIUsers(c *gin.Context) {
	users, err := h.users.Users(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "count": len(users)})
}
