// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pixpage/pixpage/internal/application/container"
	"github.com/pixpage/pixpage/internal/presentation/http/handlers"
	"github.com/pixpage/pixpage/internal/presentation/http/middleware"
	"github.com/pixpage/pixpage/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(container.Logger, container.PerfTracker))
	r.Use(middleware.CORSMiddleware(config.CORSOrigins))

	r.Static(config.MediaURLPrefix, config.MediaDir)

	// Initialize handlers
	checkoutHandlers := handlers.NewCheckoutHandlers(container.PageService, container.PaymentService, container.RenderService, container.Logger)
	paymentHandlers := handlers.NewPaymentHandlers(container.PaymentService, container.Broadcaster, config.CORSOrigins, container.Logger)
	pageHandlers := handlers.NewPageHandlers(container.PageService, container.ElementService, container.TemplateAIService, container.Logger, container.PerfTracker)
	elementHandlers := handlers.NewElementHandlers(container.ElementService, container.Logger)
	settingsHandlers := handlers.NewSettingsHandlers(container.SettingsService, container.Logger)
	mediaHandlers := handlers.NewMediaHandlers(container.MediaService, container.Logger)
	systemHandlers := handlers.NewSystemHandlers(container.DB, container.CacheManager, container.PaymentService, container.Logger, container.PerfTracker)

	r.GET("/health", systemHandlers.Health)

	// Public checkout pages
	checkoutPages := r.Group("/p/:slug")
	{
		checkoutPages.GET("", checkoutHandlers.ShowCheckout)
		checkoutPages.POST("/checkout", checkoutHandlers.SubmitCheckout)
		checkoutPages.GET("/payment/:id", checkoutHandlers.ShowPayment)
	}

	api := r.Group("/api/v1")
	{
		payments := api.Group("/payments/:id")
		{
			payments.GET("/status", paymentHandlers.GetPaymentStatus)
			payments.GET("/stream", paymentHandlers.StreamPaymentStatus)
		}

		admin := api.Group("/admin")
		{
			pages := admin.Group("/pages")
			{
				pages.GET("", pageHandlers.GetAllPages)
				pages.POST("", pageHandlers.CreatePage)
				pages.GET("/:id", pageHandlers.GetPage)
				pages.PUT("/:id", pageHandlers.UpdatePage)
				pages.DELETE("/:id", pageHandlers.DeletePage)
				pages.POST("/:id/preview", pageHandlers.PreviewPage)
				pages.POST("/:id/ai-edit", pageHandlers.AIEditPage)
				pages.GET("/:id/payments", paymentHandlers.ListPagePayments)

				pages.GET("/:id/elements", elementHandlers.ListElements)
				pages.POST("/:id/elements", elementHandlers.AddElement)
				pages.PUT("/:id/elements/:elementId", elementHandlers.UpdateElement)
				pages.DELETE("/:id/elements/:elementId", elementHandlers.DeleteElement)
				pages.PUT("/:id/elements/:elementId/position", elementHandlers.MoveElement)
				pages.PUT("/:id/layout/order", elementHandlers.ReorderElements)
				pages.POST("/:id/layout/compact", elementHandlers.CompactElements)
			}

			admin.GET("/settings", settingsHandlers.GetSettings)
			admin.PUT("/settings", settingsHandlers.UpdateSettings)
			admin.POST("/media", mediaHandlers.UploadMedia)
			admin.GET("/metrics", systemHandlers.GetMetrics)
			admin.GET("/logs/levels", systemHandlers.GetLogLevels)
			admin.PUT("/logs/levels", systemHandlers.SetLogLevel)
		}
	}

	return r
}
