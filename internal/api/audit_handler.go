package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/brand-studio/internal/models"
)

// listAudit returns audit entries newest-first. Category matches a
// dotted action prefix, so category=queue covers queue.create and
// queue.publish.
// GET /api/v1/brand-studio/audit?category=&status=&limit=
func (r *Router) listAudit(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	items := r.service.AuditEntries(c.Query("category"), c.Query("status"), n)
	c.JSON(http.StatusOK, models.AuditResponse{
		Count: len(items),
		Items: items,
	})
}
