package handlers

import (
	"net/http"
	"strings"

	"sentinel/internal/manager"
	"sentinel/internal/middleware"

	"github.com/gin-gonic/gin"
)

// ProfileHandlers provides endpoints for self-service account actions
type ProfileHandlers struct {
	users       *manager.UserStore
	authService *middleware.AuthService
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

const minPasswordLength = 8

func NewProfileHandlers(store *manager.UserStore, auth *middleware.AuthService) *ProfileHandlers {
	return &ProfileHandlers{users: store, authService: auth}
}

// APIChangePassword updates the signed-in user's password after verifying
// the current one. The session token stays valid.
func (h *ProfileHandlers) APIChangePassword(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": middleware.ErrInvalidToken.Error()})
		return
	}
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}
	newPass := strings.TrimSpace(req.NewPassword)
	if len(newPass) < minPasswordLength || len(newPass) > 72 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "New password must be between 8 and 72 characters."})
		return
	}
	if newPass != strings.TrimSpace(req.ConfirmPassword) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match."})
		return
	}
	if !h.authService.CheckPassword(req.CurrentPassword, user.HashedPassword) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect."})
		return
	}

	hash, err := h.authService.HashPassword(newPass)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password."})
		return
	}
	if err := h.users.SetPassword(c.Request.Context(), user.Username, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save new password."})
		return
	}
	ToastSuccess(c, "Password", "Password updated successfully.")
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully."})
}
