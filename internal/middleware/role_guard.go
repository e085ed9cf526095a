// role_guard.go
package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
)

// RequireRoles corta con 403 si el rol del contexto no está en la lista.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxUserRole)
		if !slices.Contains(roles, role) {
			c.JSON(http.StatusForbidden, gin.H{"message": "access denied"})
			c.Abort()
			return
		}
		c.Next()
	}
}
