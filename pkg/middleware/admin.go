package middleware

import (
	"log"
	"net/http"

	"elapor/internal/repository"
	"elapor/pkg/api"

	"github.com/gin-gonic/gin"
)

// ContextKeyAdmin admin record of the authenticated user
const ContextKeyAdmin = "admin"

// AdminMiddleware admin membership checks; runs after HandleAuth
type AdminMiddleware struct {
	admins repository.AdminRepository
}

// NewAdminMiddleware creates the admin middleware
func NewAdminMiddleware(admins repository.AdminRepository) *AdminMiddleware {
	return &AdminMiddleware{admins: admins}
}

// RequireAdmin allows any user that has an admin record
func (m *AdminMiddleware) RequireAdmin() gin.HandlerFunc {
	return m.check(false)
}

// RequireSuperAdmin allows only super admins
func (m *AdminMiddleware) RequireSuperAdmin() gin.HandlerFunc {
	return m.check(true)
}

func (m *AdminMiddleware) check(super bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetUserFromContext(c)
		if claims == nil {
			api.Error(c, http.StatusUnauthorized, "unauthorized", nil)
			c.Abort()
			return
		}

		rec, err := m.admins.GetByUserID(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Printf("[ERROR] [Admin] Failed to load admin record for %s: %v", claims.UserID, err)
			api.Error(c, http.StatusInternalServerError, "failed to check admin membership", err)
			c.Abort()
			return
		}
		if rec == nil {
			api.Error(c, http.StatusForbidden, "admin access required", nil)
			c.Abort()
			return
		}
		if super && !rec.IsSuperAdmin {
			api.Error(c, http.StatusForbidden, "super admin access required", nil)
			c.Abort()
			return
		}

		c.Set(ContextKeyAdmin, rec)
		c.Next()
	}
}
