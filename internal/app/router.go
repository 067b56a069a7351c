// internal/app/router.go
package app

import (
	"net/http"

	"jobboard-service/internal/domain/auth"
	adminHandler "jobboard-service/internal/handlers/admin"
	authHandler "jobboard-service/internal/handlers/auth"
	eventsHandler "jobboard-service/internal/handlers/events"
	jobHandler "jobboard-service/internal/handlers/job"
	"jobboard-service/internal/middleware"
	"jobboard-service/internal/pkg/metrics"
	"jobboard-service/internal/pkg/ratelimit"
	authUsecase "jobboard-service/internal/service/auth"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler         *authHandler.AuthHandler
	AdminHandler        *adminHandler.AdminHandler
	JobHandler          *jobHandler.JobHandler
	EventsHandler       *eventsHandler.EventsHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
	Throttle            *middleware.Throttle
	Metrics             *metrics.Metrics

	SubmitJobPolicy ratelimit.Policy
	JobOwnership    authUsecase.OwnershipCheck
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	r.GET("/metrics", gin.WrapH(h.Metrics.Handler()))

	api := r.Group("/api")
	api.Use(h.Throttle.Middleware())

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== Auth ====================
	authPublic := api.Group("/auth")
	{
		authPublic.POST("/login", h.AuthHandler.Login)
		authPublic.POST("/logout", h.AuthHandler.Logout)
	}

	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.GET("/me", h.AuthHandler.GetMe)
		authProtected.PUT("/password", h.AuthHandler.ChangePassword)
	}

	// ==================== Admin ====================
	admin := api.Group("/admin")
	admin.Use(h.AuthMiddleware.AdminOnly())
	{
		admin.POST("/users", h.AdminHandler.CreateUser)
		admin.DELETE("/users/:id", h.AdminHandler.DeleteUser)
		admin.PUT("/users/:id/role", h.AdminHandler.ChangeRole)

		admin.GET("/events/ws", h.EventsHandler.Stream)
		admin.GET("/events/stats", h.EventsHandler.Stats)
	}

	// ==================== Jobs ====================
	jobs := api.Group("/jobs")
	{
		jobs.POST("/submit",
			h.RateLimitMiddleware.Limit(h.SubmitJobPolicy, middleware.ClientIP),
			h.JobHandler.Submit,
		)
		jobs.GET("/:id", h.JobHandler.GetJob)

		jobs.POST("", h.AuthMiddleware.RequireRole(auth.RoleCorporation), h.JobHandler.CreateJob)
		jobs.PUT("/:id",
			h.AuthMiddleware.RequireOwner(auth.RoleCorporation, "id", h.JobOwnership),
			h.JobHandler.UpdateJob,
		)
		// ADMIN may remove any posting for moderation
		jobs.DELETE("/:id",
			h.AuthMiddleware.RequireOwnerOrAdmin(auth.RoleCorporation, "id", h.JobOwnership),
			h.JobHandler.DeleteJob,
		)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
