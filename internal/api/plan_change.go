package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/planchange"
	"github.com/railzwaylabs/planchange/pkg/snowflake"
)

type flowAction func(ctx context.Context, orgID, flowID int64) (*planchange.Snapshot, error)

type selectPlanRequest struct {
	PlanID string `json:"plan_id" binding:"required,max=64"`
}

func (r *Router) GetSubscription(c *gin.Context) {
	orgID, ok := r.resolveOrgID(c)
	if !ok {
		return
	}

	sub, err := r.orchestrator.Subscription(c.Request.Context(), orgID)
	if err != nil {
		r.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"subscription": sub,
		"plan_id":      sub.ResolvedPlanID(),
	}})
}

func (r *Router) StartPlanChange(c *gin.Context) {
	orgID, ok := r.resolveOrgID(c)
	if !ok {
		return
	}

	snap, err := r.orchestrator.Start(c.Request.Context(), orgID)
	if err != nil {
		r.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": snap})
}

func (r *Router) GetPlanChange(c *gin.Context) {
	r.runFlowAction(c, r.orchestrator.Get)
}

// SelectPlan prices the chosen plan. Choosing the current plan is a no-op.
func (r *Router) SelectPlan(c *gin.Context) {
	orgID, flowID, ok := r.flowParams(c)
	if !ok {
		return
	}

	var req selectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		r.respondError(c, planchange.ErrTargetRequired, nil)
		return
	}

	snap, err := r.orchestrator.Select(c.Request.Context(), orgID, flowID, req.PlanID)
	if errors.Is(err, planchange.ErrSamePlan) {
		c.JSON(http.StatusOK, gin.H{"data": snap, "noop": true})
		return
	}
	r.respondFlow(c, snap, err)
}

func (r *Router) ProceedPlanChange(c *gin.Context) {
	r.runFlowAction(c, r.orchestrator.Proceed)
}

func (r *Router) ConfirmPlanChange(c *gin.Context) {
	r.runFlowAction(c, r.orchestrator.Confirm)
}

func (r *Router) AcknowledgePlanChange(c *gin.Context) {
	r.runFlowAction(c, r.orchestrator.Acknowledge)
}

func (r *Router) CancelPlanChange(c *gin.Context) {
	r.runFlowAction(c, r.orchestrator.Cancel)
}

// StreamPlanChange pushes the flow as server-sent events whenever it
// changes. The stream ends once the flow is redirected or expires.
func (r *Router) StreamPlanChange(c *gin.Context) {
	orgID, flowID, ok := r.flowParams(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := r.orchestrator.Get(ctx, orgID, flowID); err != nil {
		r.respondError(c, err, nil)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	headers := c.Writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")

	c.Status(http.StatusOK)
	if _, err := fmt.Fprint(c.Writer, "retry: 3000\n\n"); err == nil {
		flusher.Flush()
	}

	pollTicker := time.NewTicker(r.streamInterval)
	heartbeatTicker := time.NewTicker(20 * time.Second)
	defer pollTicker.Stop()
	defer heartbeatTicker.Stop()

	var lastPayload string
	// publish reports whether the stream should stay open.
	publish := func() bool {
		snap, err := r.orchestrator.Get(ctx, orgID, flowID)
		if errors.Is(err, planchange.ErrFlowNotFound) {
			_, _ = fmt.Fprint(c.Writer, "event: expired\ndata: {}\n\n")
			flusher.Flush()
			return false
		}
		if err != nil {
			r.logger.Warn("stream plan change failed", zap.Error(err), zap.Int64("flow_id", flowID))
			return true
		}

		encoded, err := json.Marshal(snap)
		if err != nil {
			r.logger.Warn("stream plan change encode failed", zap.Error(err), zap.Int64("flow_id", flowID))
			return true
		}

		next := string(encoded)
		if next != lastPayload {
			lastPayload = next
			if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", next); err != nil {
				return false
			}
			flusher.Flush()
		}
		return !snap.State.Terminal()
	}

	if !publish() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			if !publish() {
				return
			}
		case <-heartbeatTicker.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (r *Router) runFlowAction(c *gin.Context, action flowAction) {
	orgID, flowID, ok := r.flowParams(c)
	if !ok {
		return
	}

	snap, err := action(c.Request.Context(), orgID, flowID)
	r.respondFlow(c, snap, err)
}

func (r *Router) respondFlow(c *gin.Context, snap *planchange.Snapshot, err error) {
	if err != nil {
		var data any
		if snap != nil {
			data = snap
		}
		r.respondError(c, err, data)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": snap})
}

func (r *Router) flowParams(c *gin.Context) (int64, int64, bool) {
	orgID, ok := r.resolveOrgID(c)
	if !ok {
		return 0, 0, false
	}

	flowID, err := snowflake.ParseID(c.Param("id"))
	if err != nil || flowID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flow id"})
		return 0, 0, false
	}
	return orgID, flowID, true
}
