package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// generateDraft produces (or re-serves) a draft bundle for a
// candidate. Identical inputs return the cached bundle unless refresh
// is set.
// POST /api/v1/brand-studio/drafts/generate
func (r *Router) generateDraft(c *gin.Context) {
	var req models.DraftGenerateRequest
	if !bindJSON(c, &req) {
		return
	}

	bundle, err := r.service.GenerateDraft(c.Request.Context(), actor(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, bundle)
}

// enqueueDraft creates a publish intent for one draft variant.
// POST /api/v1/brand-studio/drafts/:id/queue
func (r *Router) enqueueDraft(c *gin.Context) {
	var req models.QueueDraftRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := r.service.EnqueueDraft(actor(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}
