package middleware

import (
	"net/http"
	"strings"

	"brandlink/config"
	"brandlink/internal/auth"
	"brandlink/internal/response"

	"github.com/gin-gonic/gin"
)

// AuthRequired validates the bearer JWT and sets user_id, email and role in
// the context.
func AuthRequired(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abort(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}
		claims, err := auth.ParseAccessToken(cfg, parts[1])
		if err != nil {
			abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireRole checks that the authenticated user has one of the allowed roles.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		r := GetRole(c)
		if r == "" {
			abort(c, http.StatusUnauthorized, "unauthorized")
			return
		}
		for _, a := range allowed {
			if r == a {
				c.Next()
				return
			}
		}
		abort(c, http.StatusForbidden, "forbidden")
	}
}

// GetUserID returns the authenticated user ID from context (must be used after AuthRequired).
func GetUserID(c *gin.Context) uint {
	v, _ := c.Get("user_id")
	id, _ := v.(uint)
	return id
}

func GetRole(c *gin.Context) string {
	v, _ := c.Get("role")
	r, _ := v.(string)
	return r
}

func abort(c *gin.Context, code int, message string) {
	response.Error(c, code, message)
	c.Abort()
}
