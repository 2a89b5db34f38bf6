package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// getConfig returns the active strategy.
// GET /api/v1/brand-studio/config
func (r *Router) getConfig(c *gin.Context) {
	active := r.service.ActiveStrategy()
	c.JSON(http.StatusOK, models.ConfigResponse{
		ActiveStrategyID: active.ID,
		ActiveStrategy:   active,
	})
}

// saveConfig applies a partial update to the active strategy. A
// strategy_id naming a non-active strategy is rejected; updating an
// inactive strategy goes through PUT /strategies/:id instead.
// PUT /api/v1/brand-studio/config
func (r *Router) saveConfig(c *gin.Context) {
	var req models.ConfigSaveRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := r.service.SaveConfig(actor(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ConfigResponse{
		ActiveStrategyID: updated.ID,
		ActiveStrategy:   updated,
	})
}

// listStrategies returns all strategies and the active pointer.
// GET /api/v1/brand-studio/strategies
func (r *Router) listStrategies(c *gin.Context) {
	activeID, items := r.service.Strategies()
	c.JSON(http.StatusOK, models.StrategiesResponse{
		ActiveStrategyID: activeID,
		Count:            len(items),
		Items:            items,
	})
}

// createStrategy registers a new strategy, optionally cloned from an
// existing one. Creation does not activate it.
// POST /api/v1/brand-studio/strategies
func (r *Router) createStrategy(c *gin.Context) {
	var req models.StrategyCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := r.service.CreateStrategy(actor(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// updateStrategy applies a partial update to any strategy, active or
// not.
// PUT /api/v1/brand-studio/strategies/:id
func (r *Router) updateStrategy(c *gin.Context) {
	var req models.StrategyUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := r.service.UpdateStrategy(actor(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// activateStrategy switches the active strategy pointer.
// POST /api/v1/brand-studio/strategies/:id/activate
func (r *Router) activateStrategy(c *gin.Context) {
	activated, err := r.service.ActivateStrategy(actor(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ConfigResponse{
		ActiveStrategyID: activated.ID,
		ActiveStrategy:   activated,
	})
}

// deleteStrategy removes an inactive strategy.
// DELETE /api/v1/brand-studio/strategies/:id
func (r *Router) deleteStrategy(c *gin.Context) {
	if err := r.service.DeleteStrategy(actor(c), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
