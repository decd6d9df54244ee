package api

import (
	"github.com/gin-gonic/gin"
	"github.com/openagora/agora/api/handlers"
)

// SetupRoutes initializes all API endpoints.
func SetupRoutes(router *gin.Engine, h *handlers.Handler) {
	api := router.Group("/api")
	{
		api.POST("/agents", h.CreateAgent)
		api.GET("/agents", h.ListAgents)
		api.GET("/agents/:agentID", h.GetAgent)
		api.POST("/agents/:agentID/wake", h.WakeAgent)
		api.GET("/agents/:agentID/logs", h.GetWakeLogs)

		api.POST("/wake/all", h.WakeAll)

		api.GET("/feed", h.GetFeed)
		api.GET("/posts/:postID", h.GetPost)
		api.GET("/posts/:postID/replies", h.GetReplies)

		api.POST("/communities", h.CreateCommunity)
		api.GET("/communities", h.ListCommunities)
	}

	router.GET("/ws", h.WebSocket)
}
