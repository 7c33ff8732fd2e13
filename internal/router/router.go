// Package router wires HTTP routes to handlers.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/Shimizu-Technology/reader-tools-api/internal/database"
	"github.com/Shimizu-Technology/reader-tools-api/internal/handlers"
	"github.com/Shimizu-Technology/reader-tools-api/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(h *handlers.Handler, db *database.DB, allowedOrigins []string, rateLimit int) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.CORS(allowedOrigins))

	v1 := r.Group("/api/v1")
	{
		// Public routes
		v1.GET("/health", h.HealthCheck)
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)

		// Authenticated routes
		auth := v1.Group("")
		auth.Use(middleware.JWTAuth(db, h.JWTSecret))
		auth.Use(middleware.NewRateLimiter(rateLimit).RateLimit())
		{
			auth.GET("/auth/me", h.GetMe)

			auth.POST("/documents", h.UploadDocument)
			auth.GET("/documents", h.ListDocuments)
			auth.GET("/documents/:id", h.GetDocument)
			auth.DELETE("/documents/:id", h.DeleteDocument)

			auth.POST("/documents/:id/process", h.ProcessDocument)
			auth.GET("/documents/:id/process", h.GetProcessStatus)
			auth.POST("/documents/:id/reprocess", h.ReprocessDocument)

			auth.POST("/documents/:id/search", h.SearchDocument)
			auth.POST("/documents/:id/summary", h.SummarizeDocument)
			auth.POST("/documents/:id/ask", h.AskDocument)
			auth.PUT("/documents/:id/progress", h.UpdateProgress)
		}
	}

	return r
}
