package router

import (
	"net/http"

	v1 "elapor/api/v1"
	"elapor/pkg/metrics"
	"elapor/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// Router route registration
type Router struct {
	engine          *gin.Engine
	authMiddleware  *middleware.AuthMiddleware
	adminMiddleware *middleware.AdminMiddleware
	rateLimiter     *middleware.RateLimiter
	authHandler     *v1.AuthHandler
	adminHandler    *v1.AdminHandler
	profileHandler  *v1.ProfileHandler
	eventsHandler   *v1.EventsHandler
}

// NewRouter creates the router
func NewRouter(
	engine *gin.Engine,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *v1.AuthHandler,
	adminHandler *v1.AdminHandler,
	profileHandler *v1.ProfileHandler,
	eventsHandler *v1.EventsHandler,
) *Router {
	return &Router{
		engine:          engine,
		authMiddleware:  authMiddleware,
		adminMiddleware: adminMiddleware,
		rateLimiter:     rateLimiter,
		authHandler:     authHandler,
		adminHandler:    adminHandler,
		profileHandler:  profileHandler,
		eventsHandler:   eventsHandler,
	}
}

// RegisterRoutes registers every route
func (r *Router) RegisterRoutes() {
	r.engine.Use(metrics.Instrument())

	r.engine.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.engine.Group("/api/v1")
	{
		r.registerAuthRoutes(api)
		r.registerAdminRoutes(api)
		r.registerProfileRoutes(api)
		r.registerStorageRoutes(api)
	}
}

// registerAuthRoutes sign-in, sign-up, codes and session
func (r *Router) registerAuthRoutes(group *gin.RouterGroup) {
	auth := group.Group("/auth")
	{
		limited := auth.Group("", r.rateLimiter.Handle())
		limited.POST("/sign-in", r.authHandler.SignIn)
		limited.POST("/sign-up", r.authHandler.SignUp)
		limited.POST("/verify", r.authHandler.Verify)
		limited.POST("/recover", r.authHandler.Recover)
		auth.POST("/refresh", r.authHandler.Refresh)

		authed := auth.Group("", r.authMiddleware.HandleAuth())
		authed.POST("/sign-out", r.authHandler.SignOut)
		authed.GET("/session", r.authHandler.Session)
		authed.PUT("/user", r.authHandler.UpdateUser)
	}
}

// registerAdminRoutes roster reads for admins, mutations for super admins
func (r *Router) registerAdminRoutes(group *gin.RouterGroup) {
	admins := group.Group("/admins", r.authMiddleware.HandleAuth(), r.adminMiddleware.RequireAdmin())
	{
		admins.GET("", r.adminHandler.List)
		admins.POST("/reload", r.adminHandler.Reload)
		admins.GET("/pending", r.adminHandler.Pending)
		admins.GET("/events", r.eventsHandler.Subscribe)
		admins.GET("/:user_id/cooldown", r.adminHandler.Cooldown)

		super := admins.Group("", r.adminMiddleware.RequireSuperAdmin())
		super.POST("/invitations", r.rateLimiter.Handle(), r.adminHandler.Invite)
		super.POST("/:user_id/invitations/resend", r.rateLimiter.Handle(), r.adminHandler.Resend)
		super.POST("/:user_id/super-admin", r.adminHandler.ToggleSuperAdmin)
		super.POST("/save", r.adminHandler.Save)
		super.DELETE("/:user_id", r.adminHandler.Delete)
	}
}

// registerProfileRoutes the caller's own settings
func (r *Router) registerProfileRoutes(group *gin.RouterGroup) {
	profile := group.Group("/profile", r.authMiddleware.HandleAuth(), r.adminMiddleware.RequireAdmin())
	{
		profile.GET("", r.profileHandler.GetProfile)
		profile.PUT("", r.profileHandler.UpdateProfile)
		profile.POST("/avatar", r.profileHandler.UploadAvatar)
		profile.DELETE("/avatar", r.profileHandler.RemoveAvatar)
	}
}

// registerStorageRoutes public object downloads
func (r *Router) registerStorageRoutes(group *gin.RouterGroup) {
	group.GET("/storage/:bucket/*path", r.profileHandler.GetObject)
}
