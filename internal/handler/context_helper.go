package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-roster-api/internal/middleware"
	"github.com/noah-isme/school-roster-api/internal/models"
)

// claimsFromContext returns the principal set by the JWT middleware, or nil.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Get(middleware.ContextUserKey)
	typed, _ := claims.(*models.JWTClaims)
	return typed
}
