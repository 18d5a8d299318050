package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"execsummary-backend/internal/shared/auth"
	"execsummary-backend/internal/shared/server/respond"
)

const (
	userIDKey    = "userId"
	userEmailKey = "userEmail"
	userNameKey  = "userName"

	devFallbackUser = "demo"
)

type ctxKey string

const ownerCtxKey ctxKey = "owner_id"

// Auth resolves the caller identity from X-User-Id or the bearer token
// subject. Dev-like environments fall back to a fixed demo user.
func Auth(devLike bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			return
		}

		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))

		if userID == "" {
			if authHeader := strings.TrimSpace(c.GetHeader("Authorization")); authHeader != "" {
				if !strings.HasPrefix(authHeader, "Bearer ") {
					respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
					return
				}
				claims, err := auth.ParseClaims(strings.TrimPrefix(authHeader, "Bearer "), time.Now())
				if err != nil {
					respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
					return
				}
				userID = claims.Sub
				if claims.Email != "" {
					c.Set(userEmailKey, claims.Email)
				}
				if claims.Name != "" {
					c.Set(userNameKey, claims.Name)
				}
			}
		}

		if userID == "" {
			if !devLike {
				respond.Error(c, http.StatusUnauthorized, "unauthorized", "Missing identity", nil)
				return
			}
			userID = devFallbackUser
		}

		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), ownerCtxKey, userID))
		c.Next()
	}
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}

// OwnerIDFromContext returns the caller identity stored on a request context.
func OwnerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ownerCtxKey).(string); ok {
		return v
	}
	return ""
}

// UserEmailFromContext fetches the user email taken from the bearer token.
func UserEmailFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userEmailKey)
	if email, ok := val.(string); ok {
		return email
	}
	return ""
}

// UserNameFromContext fetches the user name taken from the bearer token.
func UserNameFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userNameKey)
	if name, ok := val.(string); ok {
		return name
	}
	return ""
}
