package api

import (
	"student-report-service/internal/middleware"
	"student-report-service/internal/services"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(handlers *Handlers, jwtService *services.JWTService, localStoragePath string) *gin.Engine {
	router := gin.Default()

	// Add CORS middleware
	router.Use(corsMiddleware())

	// API routes
	api := router.Group("/api")
	{
		// Token exchange endpoint (no auth required)
		auth := api.Group("/auth")
		{
			auth.POST("/token", handlers.TokenHandler)
		}

		// Apply authentication middleware to all student routes
		students := api.Group("/students")
		students.Use(middleware.AuthenticateUser(jwtService))
		{
			reports := students.Group("/reports")
			{
				reports.POST("/generate", handlers.GenerateReportHandler)
				reports.GET("", handlers.ListReportsHandler)
				reports.GET("/status/:taskId", handlers.ReportStatusHandler)
				reports.GET("/download/:taskId", handlers.DownloadReportHandler)
				reports.POST("/email/:taskId", handlers.EmailReportHandler)
				reports.POST("/subscribe", handlers.SubscribeHandler)
				reports.POST("/unsubscribe", handlers.UnsubscribeHandler)
			}

			endorsements := students.Group("/endorsements")
			{
				endorsements.GET("/analytics", handlers.EndorsementAnalyticsHandler)
			}
		}
	}

	// Serve locally stored report artifacts
	if localStoragePath != "" {
		router.Static("/storage", localStoragePath)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
