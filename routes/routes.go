package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"bookwise/handlers"
	"bookwise/middleware"
)

// RegisterDialogueRoutes registers the conversational booking endpoints.
func RegisterDialogueRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.POST("/auth/token", hb.IssueTokenHandler)

		// Protected routes (require a client JWT).
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.POST("/chat", hb.ChatHandler)
		protected.POST("/session", hb.StartSessionHandler)
		protected.GET("/session/:id", hb.GetSessionHandler)
		protected.GET("/calendar/availability", hb.AvailabilityHandler)
	}
}

// RegisterHealthRoute registers the health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", handlers.Health)
}

// CORSMiddleware returns the CORS policy for browser clients.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
