package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"elapor/internal/model"
	"elapor/internal/service"
	"elapor/pkg/api"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	// BearerSchema Authorization header scheme
	BearerSchema = "Bearer "
	// ContextKeyUser claims of the authenticated user
	ContextKeyUser = "user"
	// ContextKeyAccessToken raw access token of the request
	ContextKeyAccessToken = "access_token"
	// CookieAccessToken cookie carrying the access token
	CookieAccessToken = "access_token"
	// QueryAccessToken query parameter accepted on WebSocket upgrades
	QueryAccessToken = "access_token"
)

// AuthMiddleware validates access tokens
type AuthMiddleware struct {
	tokenService service.TokenService
}

// NewAuthMiddleware creates the auth middleware
func NewAuthMiddleware(tokenService service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService}
}

// HandleAuth rejects requests without a valid access token
func (m *AuthMiddleware) HandleAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			api.Error(c, http.StatusUnauthorized, "missing token", nil)
			c.Abort()
			return
		}

		claims, err := m.tokenService.ValidateToken(c.Request.Context(), token, model.AccessToken)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrInvalidToken):
				api.Error(c, http.StatusUnauthorized, "invalid token", err)
			case errors.Is(err, service.ErrTokenExpired):
				api.Error(c, http.StatusUnauthorized, "token expired", err)
			case errors.Is(err, service.ErrTokenRevoked):
				api.Error(c, http.StatusUnauthorized, "token revoked", err)
			default:
				log.Printf("[ERROR] [Auth] Token validation failed: %v", err)
				api.Error(c, http.StatusInternalServerError, "failed to validate token", err)
			}
			c.Abort()
			return
		}

		if remaining := time.Until(claims.GetExpiresAt()); remaining > 0 {
			c.Header("X-Token-Expires-In", remaining.String())
		}

		c.Set(ContextKeyUser, claims)
		c.Set(ContextKeyAccessToken, token)
		c.Set("user_id", claims.UserID)
		c.Next()
	}
}

// extractToken looks at the Authorization header, then the cookie. Browsers
// cannot set headers on WebSocket upgrades, so those may pass it as a query.
func extractToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, BearerSchema) {
		return strings.TrimSpace(auth[len(BearerSchema):])
	}

	if cookie, err := c.Cookie(CookieAccessToken); err == nil && cookie != "" {
		return cookie
	}

	if websocket.IsWebSocketUpgrade(c.Request) {
		return c.Query(QueryAccessToken)
	}
	return ""
}
