package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/grade-portal-api/internal/middleware"
	"github.com/campushub/grade-portal-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// studentIDFromContext resolves the student whose records a request targets.
// Students always act on their own records; registrars may target any
// student via the studentId query parameter.
func studentIDFromContext(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	if claims.Role == models.RoleRegistrar {
		if id := c.Query("studentId"); id != "" {
			return id
		}
	}
	return claims.UserID
}
