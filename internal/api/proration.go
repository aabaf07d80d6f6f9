package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type previewRequest struct {
	NewPlanID string `json:"new_plan_id" binding:"required,max=64"`
}

// PreviewProration prices a plan change for the caller's organization
// without opening a flow.
func (r *Router) PreviewProration(c *gin.Context) {
	orgID, ok := r.resolveOrgID(c)
	if !ok {
		return
	}

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	res, err := r.orchestrator.Preview(c.Request.Context(), orgID, req.NewPlanID)
	if err != nil {
		r.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": res})
}
