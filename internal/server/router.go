package server

import (
	"net/http"

	"github.com/emrgen/travelexpense/internal/auth"
	"github.com/emrgen/travelexpense/internal/module"
	"github.com/emrgen/travelexpense/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gobuffalo/packr"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Services bundles everything the HTTP layer talks to.
type Services struct {
	Auth          *auth.Service
	Regulations   *service.RegulationService
	Applications  *service.ApplicationService
	Notifications *service.NotificationService
	Dashboard     *service.DashboardService
}

// NewRouter registers the REST api on a new gin engine.
func NewRouter(services Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestTimeInterceptor(), MetricsInterceptor())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	openapiDocs := packr.NewBox("../../docs/v1")
	router.StaticFS("/v1/docs", openapiDocs)

	authHandler := NewAuthHandler(services.Auth)
	dashboardHandler := NewDashboardHandler(services.Dashboard)
	applicationHandler := NewApplicationHandler(services.Applications)
	notificationHandler := NewNotificationHandler(services.Notifications)
	regulationHandler := NewRegulationHandler(services.Regulations)

	api := router.Group("/api/v1")

	public := api.Group("/auth")
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.POST("/refresh", authHandler.Refresh)
	public.POST("/password/reset", authHandler.RequestPasswordReset)
	public.POST("/password/confirm", authHandler.ResetPassword)

	private := api.Group("")
	private.Use(module.AuthRequired(services.Auth))
	{
		private.POST("/auth/logout", authHandler.Logout)
		private.GET("/auth/me", authHandler.Me)
		private.PUT("/auth/profile", authHandler.UpdateProfile)

		private.GET("/dashboard", dashboardHandler.Get)

		private.GET("/applications/expense", applicationHandler.ListExpenses)
		private.POST("/applications/expense", applicationHandler.CreateExpense)
		private.GET("/applications/business-trip", applicationHandler.ListBusinessTrips)
		private.POST("/applications/business-trip", applicationHandler.CreateBusinessTrip)
		private.PUT("/applications/:kind/:id/status", applicationHandler.UpdateStatus)
		private.DELETE("/applications/:kind/:id", applicationHandler.Delete)

		private.GET("/notifications", notificationHandler.List)
		private.POST("/notifications", notificationHandler.Create)
		private.GET("/notifications/stream", notificationHandler.Stream)
		private.PUT("/notifications/:id/read", notificationHandler.MarkRead)

		private.GET("/regulations", regulationHandler.List)
		private.POST("/regulations", regulationHandler.Create)
		private.GET("/regulations/companies", regulationHandler.ListByCompany)
		private.POST("/regulations/preview", regulationHandler.Preview)
		private.POST("/regulations/proposals", regulationHandler.Propose)
		private.POST("/regulations/proposals/:token/confirm", regulationHandler.Confirm)
		private.GET("/regulations/:id", regulationHandler.Get)
		private.PUT("/regulations/:id", regulationHandler.Update)
		private.DELETE("/regulations/:id", regulationHandler.Delete)
		private.GET("/regulations/:id/history", regulationHandler.History)
		private.GET("/regulations/:id/snapshots", regulationHandler.Snapshots)
		private.GET("/regulations/:id/text", regulationHandler.Text)
		private.GET("/regulations/:id/export", regulationHandler.Export)
	}

	return router
}
