package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authmw "stockai-backend/internal/features/auth/middleware"
	"stockai-backend/internal/features/auth/models"
	"stockai-backend/internal/features/auth/service"
	userservice "stockai-backend/internal/features/user/service"
)

type AuthHandler struct {
	auth  service.AuthService
	users userservice.UserService
}

func NewAuthHandler(auth service.AuthService, users userservice.UserService) *AuthHandler {
	return &AuthHandler{
		auth:  auth,
		users: users,
	}
}

func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/logout", h.Logout)
	}

	users := router.Group("/users")
	users.Use(authmw.RequireSession())
	{
		users.GET("/me", h.Me)
	}
}

type loginRequest struct {
	Email string `json:"email" binding:"required"`
}

// @Summary Log in with an email address
// @Description Gets or creates the account for the email and issues a session token in the session_token cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Session token and user snapshot"
// @Failure 400 {object} map[string]interface{} "Invalid email"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing email"})
		return
	}

	token, user, err := h.auth.Login(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid email"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.SetCookie(models.CookieName, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"session_token": token, "user": user})
}

// @Summary Log out
// @Description Deletes the session and clears the session cookie.
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{} "Logged out"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	token := authmw.SessionToken(c)
	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.SetCookie(models.CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// @Summary Get the current user
// @Description Returns the account snapshot for the session, including entitlement flags.
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{} "User snapshot"
// @Failure 401 {object} map[string]interface{} "No session"
// @Failure 404 {object} map[string]interface{} "User not found"
// @Router /users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := authmw.SessionUserID(c)

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, userservice.ErrNoDatabase) {
			// No database: reconstruct the snapshot from the local token.
			token := authmw.SessionToken(c)
			if email, ok := service.ParseLocalToken(token); ok {
				_, localSnapshot, lerr := h.auth.Login(c.Request.Context(), email)
				if lerr == nil {
					c.JSON(http.StatusOK, gin.H{"user": localSnapshot})
					return
				}
			}
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if errors.Is(err, userservice.ErrUserNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
