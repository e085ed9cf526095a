// auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"marketplace-api/internal/service"

	"github.com/gin-gonic/gin"
)

// Claves que el middleware deja en el contexto de gin.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
	CtxUserName = "userName"
)

// Middleware que valida el token y guarda la info del usuario en el contexto
func Authenticate(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "missing authorization header"})
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		id, role, err := authService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid or expired token"})
			c.Abort()
			return
		}

		// Se carga el principal para que un usuario borrado pierda
		// acceso aunque su token siga vigente.
		user, err := authService.GetProfile(c.Request.Context(), id)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "user not found"})
			c.Abort()
			return
		}

		c.Set(CtxUserID, user.ID)
		c.Set(CtxUserRole, role)
		c.Set(CtxUserName, user.Name)
		c.Next()
	}
}
