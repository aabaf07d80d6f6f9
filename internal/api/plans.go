package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

// ListPlans returns the public catalog.
func (r *Router) ListPlans(c *gin.Context) {
	plans, err := r.catalog.ListPlans(c.Request.Context())
	if err != nil {
		r.logger.Error("failed to list plans", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch plans"})
		return
	}

	interval := plan.Interval(c.Query("interval"))
	if interval != "" {
		filtered := make([]plan.Plan, 0, len(plans))
		for _, p := range plans {
			if p.Interval == interval {
				filtered = append(filtered, p)
			}
		}
		plans = filtered
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (r *Router) GetPlan(c *gin.Context) {
	p, err := r.catalog.GetPlan(c.Request.Context(), c.Param("id"))
	if errors.Is(err, plan.ErrPlanNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan_not_found"})
		return
	}
	if err != nil {
		r.logger.Error("failed to get plan", zap.String("plan_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}
