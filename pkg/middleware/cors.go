package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the configured dashboard origins with credentials.
// "*" allows any origin without credentials; an empty list installs nothing,
// leaving cross-origin reads to the browser's same-origin policy.
func CORSMiddleware(allowedOrigins []string) (gin.HandlerFunc, error) {
	if len(allowedOrigins) == 0 {
		return func(c *gin.Context) { c.Next() }, nil
	}

	cfg := cors.Config{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"X-Token-Expires-In", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           10 * time.Minute,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = allowedOrigins
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server.allowed_origins: %w", err)
	}
	return cors.New(cfg), nil
}
