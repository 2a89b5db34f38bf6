package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// handleServiceError maps domain errors onto HTTP statuses. The kind
// field lets clients branch without parsing messages.
func handleServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	kind := "internal"

	switch {
	case errors.Is(err, models.ErrNotFound):
		status, kind = http.StatusNotFound, "not_found"
	case errors.Is(err, models.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, models.ErrConflict):
		status, kind = http.StatusConflict, "conflict"
	case errors.Is(err, models.ErrConfirmRequired):
		status, kind = http.StatusPreconditionFailed, "confirm_required"
	case errors.Is(err, models.ErrCollaborator):
		status, kind = http.StatusBadGateway, "collaborator"
	}

	c.JSON(status, gin.H{
		"error": err.Error(),
		"kind":  kind,
	})
}

// bindJSON binds the request body, reporting binding failures in the
// same error shape as domain validation errors.
func bindJSON(c *gin.Context, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request payload: " + err.Error(),
			"kind":  "validation",
		})
		return false
	}
	return true
}

// queryFloat parses an optional float query parameter.
func queryFloat(c *gin.Context, name string) (*float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid " + name + ": " + raw,
			"kind":  "validation",
		})
		return nil, false
	}
	return &v, true
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid " + name + ": " + raw,
			"kind":  "validation",
		})
		return nil, false
	}
	return &v, true
}
