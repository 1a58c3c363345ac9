package video

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ethanbaker/recap/internal/captions"
	"github.com/ethanbaker/recap/internal/orchestrator"
	videostore "github.com/ethanbaker/recap/internal/stores/video"
	"github.com/ethanbaker/recap/pkg/sdk"
)

// Controller handles video module requests through the orchestrator
type Controller struct {
	orch *orchestrator.Orchestrator
}

// AnalyzeVideo handles POST requests to analyze a video by URL
func (ctrl *Controller) AnalyzeVideo(c *gin.Context) {
	// Parse request body
	var req sdk.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	result, err := ctrl.orch.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		c.JSON(analyzeError(err).AsGinResponse())
		return
	}

	resp := sdk.AnalyzeResponse{
		VideoID:  result.VideoID,
		Title:    result.Metadata.Title,
		Channel:  result.Metadata.Channel,
		Duration: result.Metadata.Duration.Seconds(),
		Summary:  result.Summary,
	}

	c.JSON(sdk.NewSuccessResponse("Video analyzed successfully", resp).AsGinResponse())
}

// GetVideo handles GET requests to retrieve a cached video session
func (ctrl *Controller) GetVideo(c *gin.Context) {
	id := c.Param("id")

	sess, ok := ctrl.orch.Session(id)
	if !ok {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Video not found", nil).AsGinResponse())
		return
	}

	c.JSON(sdk.NewSuccessResponse("Video retrieved successfully", toVideoResponse(sess)).AsGinResponse())
}

// AskQuestion handles POST requests to ask a question about an analyzed
// video, streaming the answer as server-sent events
func (ctrl *Controller) AskQuestion(c *gin.Context) {
	id := c.Param("id")

	// Parse request body
	var req sdk.AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// Fragments arrive on the channel until the answer is complete; errors
	// arrive as a single message fragment so the stream stays well-formed
	fragments := ctrl.orch.AskQuestion(c.Request.Context(), id, req.Question)

	c.Stream(func(w io.Writer) bool {
		fragment, ok := <-fragments
		if !ok {
			c.SSEvent("done", "")
			return false
		}

		c.SSEvent("message", fragment)
		return true
	})
}

// analyzeError maps orchestrator failures to API error responses
func analyzeError(err error) sdk.ApiResponse[any] {
	switch {
	case errors.Is(err, captions.ErrInvalidURL):
		return sdk.NewErrorResponse(http.StatusBadRequest, "Not a valid YouTube URL", err.Error())
	case errors.Is(err, captions.ErrUnavailable):
		return sdk.NewErrorResponse(http.StatusNotFound, "Video is unavailable", err.Error())
	case errors.Is(err, captions.ErrNoCaptions):
		return sdk.NewErrorResponse(http.StatusUnprocessableEntity, "Video has no captions", err.Error())
	default:
		return sdk.NewErrorResponse(http.StatusInternalServerError, "Failed to analyze video", err.Error())
	}
}

// Helper method to convert a stored session to its API representation
func toVideoResponse(sess *videostore.Session) sdk.VideoResponse {
	resp := sdk.VideoResponse{
		VideoID:    sess.VideoID,
		Title:      sess.Metadata.Title,
		Channel:    sess.Metadata.Channel,
		Duration:   sess.Metadata.Duration.Seconds(),
		Summary:    sess.Summary,
		ChunkCount: len(sess.Chunks),
		History:    []sdk.Message{},
	}

	for _, msg := range sess.History {
		resp.History = append(resp.History, sdk.Message{
			ID:        msg.ID.String(),
			Role:      msg.Role,
			Content:   msg.Content,
			CreatedAt: msg.CreatedAt,
		})
	}

	return resp
}
