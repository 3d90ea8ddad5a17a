package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockai-backend/internal/features/auth/models"
	"stockai-backend/internal/features/auth/service"
)

const (
	ctxToken  = "session_token"
	ctxUserID = "session_user_id"
)

// Session extracts the session credential and resolves it to a user id.
// It never aborts; endpoints that need authentication stack RequireSession
// on top. The resolved id travels through the gin context so deeper layers
// take it as an explicit parameter instead of reading cookies themselves.
func Session(auth service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.Next()
			return
		}

		c.Set(ctxToken, token)

		userID, err := auth.Resolve(c.Request.Context(), token)
		if err == nil && userID != "" {
			c.Set(ctxUserID, userID)
		}

		c.Next()
	}
}

// RequireSession aborts with 401 unless a session resolved to a user.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if SessionUserID(c) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - No session token"})
			return
		}
		c.Next()
	}
}

// SessionUserID returns the resolved user id, or "".
func SessionUserID(c *gin.Context) string {
	if v, exists := c.Get(ctxUserID); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// SessionToken returns the raw inbound token, or "".
func SessionToken(c *gin.Context) string {
	if v, exists := c.Get(ctxToken); exists {
		if t, ok := v.(string); ok {
			return t
		}
	}
	return ""
}

// extractToken prefers the session cookie; the header, bearer and query
// fallbacks exist for non-browser clients and dev tooling.
func extractToken(c *gin.Context) string {
	if cookie, err := c.Cookie(models.CookieName); err == nil && cookie != "" {
		return cookie
	}
	if h := c.GetHeader("X-Session-Token"); h != "" {
		return h
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return c.Query("session_token")
}
