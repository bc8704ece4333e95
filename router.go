package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopsift/shopsift-api/config"
	"github.com/shopsift/shopsift-api/controllers"
	"github.com/shopsift/shopsift-api/middleware"
	"github.com/shopsift/shopsift-api/templates"
	"golang.org/x/time/rate"
)

// newRouter wires every route. auth authenticates merchants; tests pass a
// stand-in. limiter guards the inbound webhook and may be nil.
func newRouter(cfg *config.Config, auth gin.HandlerFunc, limiter *rate.Limiter) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	if len(cfg.CORSAllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSAllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.SetHTMLTemplate(templates.MustLoad())

	// Contract endpoints used by the mail relay and the dashboard
	api := router.Group("/api")
	{
		api.POST("/incoming-email", middleware.RateLimit(limiter), controllers.IncomingEmail)
		api.POST("/send-reply", auth, middleware.RequireMerchant(), controllers.SendReply)
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", controllers.HealthCheck)
		v1.GET("/database/status", controllers.DatabaseStatus)

		authed := v1.Group("", auth)
		authed.POST("/merchants", controllers.CreateMerchant)

		merchant := authed.Group("", middleware.RequireMerchant())
		{
			merchant.GET("/merchants/me", controllers.GetMyMerchant)
			merchant.PUT("/merchants/me/policies", controllers.UpdateMyPolicies)
			merchant.PUT("/merchants/me/settings", controllers.UpdateMySettings)

			merchant.GET("/tickets", controllers.ListTickets)
			merchant.GET("/tickets/:id", controllers.GetTicket)
			merchant.PUT("/tickets/:id/draft", controllers.UpdateTicketDraft)
			merchant.GET("/stats", controllers.GetStats)
		}
	}

	dashboard := router.Group("/dashboard", middleware.NoCache())
	{
		dashboard.POST("/session", auth, controllers.CreateSession)
		dashboard.POST("/signout", controllers.SignOut)

		pages := dashboard.Group("", auth, middleware.RequireMerchantPage())
		pages.GET("", controllers.DashboardPage)
		pages.POST("/tickets/:id/draft", controllers.DashboardSaveDraft)
		pages.POST("/tickets/:id/send", controllers.DashboardSendReply)
		pages.GET("/policies", controllers.PoliciesPage)
		pages.POST("/policies", controllers.UpdatePoliciesForm)
		pages.GET("/settings", controllers.SettingsPage)
		pages.POST("/settings", controllers.UpdateSettingsForm)
	}

	return router
}
