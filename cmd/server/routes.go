package main

import (
	"github.com/gin-gonic/gin"
	"github.com/samuq/backend/internal/middleware"
	"github.com/samuq/backend/internal/services"
	"github.com/samuq/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))

	r.GET("/health", svc.health.CheckHealth)
	r.GET("/metrics", svc.metrics.Metrics)

	api := r.Group("/api")
	{
		// Public reads
		api.GET("/rules", svc.rules.List)
		api.GET("/checklists/form", svc.checklists.Form)
		api.GET("/asked-terms", svc.questions.TopTerms)

		// Public intake, rate limited per IP
		intake := api.Group("", svc.limiter.Middleware())
		{
			intake.POST("/checklists/submit", svc.checklists.Submit)
			intake.POST("/search-log", svc.searchLogs.Log)
			intake.POST("/questions", svc.questions.Ask)
			intake.POST("/auth/login", svc.auth.Login)
		}

		// Staff routes
		staff := api.Group("")
		staff.Use(middleware.AuthRequired(), middleware.RoleRequired(services.RoleStaff, services.RoleAdmin), middleware.AuditLog())
		{
			staff.GET("/auth/me", svc.auth.GetCurrentUser)
			staff.POST("/auth/change-password", svc.auth.ChangePassword)

			staff.POST("/checklists/digest/send", svc.digests.Send)
			staff.GET("/checklists/digest/logs", svc.digests.Logs)

			staff.GET("/inbox/checklists", svc.checklists.Inbox)
			staff.GET("/inbox/checklists/digest", svc.checklists.DigestPreview)
			staff.GET("/inbox/checklists/:id", svc.checklists.Detail)

			staff.GET("/inbox/questions", svc.questions.List)
			staff.GET("/inbox/questions/:id", svc.questions.Detail)
			staff.POST("/inbox/questions/:id/reviewed", svc.questions.MarkReviewed)

			staff.GET("/inbox/search-terms", svc.searchLogs.Recent)
		}

		// Admin routes
		admin := staff.Group("")
		admin.Use(middleware.AdminRequired())
		{
			admin.GET("/system-logs", svc.systemLogs.List)
		}
	}
}
