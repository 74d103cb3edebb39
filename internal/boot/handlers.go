package boot

import (
	v1 "elapor/api/v1"
	"elapor/pkg/config"
	"elapor/pkg/middleware"
	"elapor/pkg/router"

	"github.com/gin-gonic/gin"
)

// Handlers HTTP handlers and the shared rate limiter
type Handlers struct {
	AuthHandler    *v1.AuthHandler
	AdminHandler   *v1.AdminHandler
	ProfileHandler *v1.ProfileHandler
	EventsHandler  *v1.EventsHandler
	RateLimiter    *middleware.RateLimiter
}

// InitHandlers creates the handlers
func InitHandlers(services *Services, cfg *config.Config) *Handlers {
	return &Handlers{
		AuthHandler:    v1.NewAuthHandler(services.AuthService, cfg.Server.SecureCookie),
		AdminHandler:   v1.NewAdminHandler(services.InvitationService, services.RosterService, services.Hub),
		ProfileHandler: v1.NewProfileHandler(services.ProfileService),
		EventsHandler:  v1.NewEventsHandler(services.Hub, cfg.Server.AllowedOrigins),
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
	}
}

// InitRouter installs global middleware and registers every route
func InitRouter(engine *gin.Engine, handlers *Handlers, services *Services, repos *Repositories, cfg *config.Config) (*router.Router, error) {
	corsMW, err := middleware.CORSMiddleware(cfg.Server.AllowedOrigins)
	if err != nil {
		return nil, err
	}
	engine.Use(corsMW)

	r := router.NewRouter(
		engine,
		middleware.NewAuthMiddleware(services.TokenService),
		middleware.NewAdminMiddleware(repos.AdminRepo),
		handlers.RateLimiter,
		handlers.AuthHandler,
		handlers.AdminHandler,
		handlers.ProfileHandler,
		handlers.EventsHandler,
	)
	r.RegisterRoutes()
	return r, nil
}
