package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// listProfiles returns credential profiles with secrets masked.
// GET /api/v1/brand-studio/credential-profiles?channel=&role=&status=
func (r *Router) listProfiles(c *gin.Context) {
	filter := models.ProfileFilter{
		Channel: c.Query("channel"),
		Role:    c.Query("role"),
		Status:  c.Query("status"),
	}

	items := r.service.Profiles(filter)
	c.JSON(http.StatusOK, models.ProfilesResponse{
		Count: len(items),
		Items: items,
	})
}

// createProfile registers a credential profile.
// POST /api/v1/brand-studio/credential-profiles
func (r *Router) createProfile(c *gin.Context) {
	var req models.ProfileCreateRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := r.service.CreateProfile(actor(c), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// getProfile returns one masked profile.
// GET /api/v1/brand-studio/credential-profiles/:id
func (r *Router) getProfile(c *gin.Context) {
	profile, err := r.service.Profile(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// updateProfile applies a partial update.
// PUT /api/v1/brand-studio/credential-profiles/:id
func (r *Router) updateProfile(c *gin.Context) {
	var req models.ProfileUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := r.service.UpdateProfile(actor(c), c.Param("id"), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// activateProfile marks a profile as its channel's default.
// POST /api/v1/brand-studio/credential-profiles/:id/activate
func (r *Router) activateProfile(c *gin.Context) {
	updated, err := r.service.ActivateProfile(actor(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// testProfile checks a profile's credentials and records the outcome.
// POST /api/v1/brand-studio/credential-profiles/:id/test
func (r *Router) testProfile(c *gin.Context) {
	result, err := r.service.TestProfile(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// deleteProfile removes a profile unless something still references it.
// DELETE /api/v1/brand-studio/credential-profiles/:id
func (r *Router) deleteProfile(c *gin.Context) {
	if err := r.service.DeleteProfile(actor(c), c.Param("id")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
