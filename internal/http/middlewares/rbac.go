package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFromContext(c)
		if !ok {
			abortUnauthorized(c, "Missing identity context")
			return
		}
		if !claims.HasRole(required) {
			AbortWithError(c, http.StatusForbidden, "forbidden", required+" role required", nil)
			return
		}
		c.Next()
	}
}
