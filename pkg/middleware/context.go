package middleware

import (
	"elapor/internal/model"

	"github.com/gin-gonic/gin"
)

// GetUserFromContext claims set by HandleAuth, nil when absent
func GetUserFromContext(c *gin.Context) *model.TokenClaims {
	if user, exists := c.Get(ContextKeyUser); exists {
		if claims, ok := user.(*model.TokenClaims); ok {
			return claims
		}
	}
	return nil
}

// MustGetUserFromContext panics when HandleAuth did not run
func MustGetUserFromContext(c *gin.Context) *model.TokenClaims {
	claims := GetUserFromContext(c)
	if claims == nil {
		panic("user not found in context")
	}
	return claims
}

// GetAccessToken raw access token of the request
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ContextKeyAccessToken)
}

// GetAdminFromContext admin record set by RequireAdmin, nil when absent
func GetAdminFromContext(c *gin.Context) *model.AdminRecord {
	if v, exists := c.Get(ContextKeyAdmin); exists {
		if rec, ok := v.(*model.AdminRecord); ok {
			return rec
		}
	}
	return nil
}
