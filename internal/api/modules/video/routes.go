package video

import (
	"github.com/gin-gonic/gin"

	"github.com/ethanbaker/recap/internal/orchestrator"
)

// Register routes for the video module
func RegisterRoutes(g *gin.RouterGroup, orch *orchestrator.Orchestrator) {
	ctrl := &Controller{orch: orch}

	// Create base group for video routes
	group := g.Group("/videos")

	group.POST("", ctrl.AnalyzeVideo)              // Analyze a video by URL
	group.GET("/:id", ctrl.GetVideo)               // Get a cached video session
	group.POST("/:id/questions", ctrl.AskQuestion) // Ask a question about an analyzed video (SSE)
}
