package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/facecoach/internal/api/handlers"
	"github.com/yoockh/facecoach/internal/api/middleware"
)

type Deps struct {
	Session *handlers.SessionHandler
	Profile *handlers.ProfileHandler
	Tip     *handlers.TipHandler
	WS      *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/session/start", d.Session.Start)
	auth.GET("/session/:session_id", d.Session.Get)
	auth.POST("/session/:session_id/frame", d.Session.Frame)
	auth.POST("/session/:session_id/vector", d.Session.Vector)
	auth.GET("/session/:session_id/feedback", d.Session.Feedback)
	auth.POST("/session/:session_id/stop", d.Session.Stop)

	auth.GET("/feedback/history", d.Session.History)

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile/update", d.Profile.Update)

	auth.GET("/coach/tip", d.Tip.DailyTip)

	// WebSocket
	auth.GET("/ws/session/:session_id", d.WS.SessionWS)
}
