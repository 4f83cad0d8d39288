package routes

import (
	"net/http"
	"time"

	"frontdesk/handlers"
	"frontdesk/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterVoiceRoutes registers the voice and text turn endpoints.
func RegisterVoiceRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/voice")
	{
		api.POST("/turn", hb.VoiceTurnHandler)
		api.POST("/text", hb.TextTurnHandler)
		api.DELETE("/session/:sessionID", hb.EndSessionHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Hi, I'm Frontdesk",
			"deps":    utils.GetHealthStatus(),
		})
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	// Setup global middleware (e.g., CORS) here. The X- headers carry
	// the dialogue metadata alongside the audio body, so they must be
	// exposed to browser clients.
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders: []string{
			"Content-Length",
			"X-User-Transcript", "X-Bot-Text", "X-Agent-State",
			"X-Session-Ended", "X-Calendar-Error",
		},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterVoiceRoutes(r, hb)
	RegisterHealthRoute(r)
}
