package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/models"
	"github.com/jonesrussell/brand-studio/internal/studio"
)

// listQueue returns queue items newest-first.
// GET /api/v1/brand-studio/queue?channel=&status=
func (r *Router) listQueue(c *gin.Context) {
	filter := studio.QueueFilter{
		Channel: c.Query("channel"),
		Status:  c.Query("status"),
	}
	if filter.Status != "" && !models.ValidQueueStatus(filter.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown status: " + filter.Status,
			"kind":  "validation",
		})
		return
	}

	items := r.service.QueueItems(filter)
	c.JSON(http.StatusOK, models.QueueResponse{
		Count: len(items),
		Items: items,
	})
}

// publishQueueItem performs the confirmed publish for one queue item.
// Without confirm_publish the request fails with 412 and no state
// changes.
// POST /api/v1/brand-studio/queue/:id/publish
func (r *Router) publishQueueItem(c *gin.Context) {
	var req models.PublishRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := r.service.PublishQueueItem(c.Request.Context(), actor(c), c.Param("id"), req.ConfirmPublish)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
