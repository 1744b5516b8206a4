package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shadowtalk/internal/utils"
)

// Auth validates the bearer token and sets user_id in the request context.
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// WebSocket-style clients pass the token as a query param
			token := c.Query("token")
			if token == "" {
				utils.ErrorResponse(c, http.StatusUnauthorized, "Missing authentication token")
				c.Abort()
				return
			}
			authHeader = "Bearer " + token
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid token format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateUserJWT(tokenString)
		if err != nil {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid authentication token")
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireAdmin rejects requests whose token does not carry the admin role.
// Must run after Auth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != "admin" {
			utils.ErrorResponse(c, http.StatusForbidden, "Admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
