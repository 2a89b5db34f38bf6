package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// listCandidates returns the scored candidate set for the active
// strategy, served from cache while fresh.
// GET /api/v1/brand-studio/sources/candidates?channel=&lang=&min_score=&limit=
func (r *Router) listCandidates(c *gin.Context) {
	minScore, ok := queryFloat(c, "min_score")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	filter := models.CandidateFilter{
		Channel:  c.Query("channel"),
		Lang:     c.Query("lang"),
		MinScore: minScore,
		Limit:    limit,
	}
	if filter.Channel != "" && !models.ValidChannel(filter.Channel) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "unknown channel: " + filter.Channel,
			"kind":  "validation",
		})
		return
	}

	items, refreshedAt, err := r.service.Candidates(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.CandidatesResponse{
		Status:      "ok",
		Count:       len(items),
		Items:       items,
		RefreshedAt: refreshedAt,
	})
}

// refreshCandidates forces a discovery pass, bypassing the cache TTL.
// POST /api/v1/brand-studio/sources/refresh
func (r *Router) refreshCandidates(c *gin.Context) {
	if err := r.service.RefreshCandidates(c.Request.Context(), actor(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "refreshed"})
}
