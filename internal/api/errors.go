package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/domain/billing"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/planchange"
	"github.com/railzwaylabs/planchange/internal/proration"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, planchange.ErrFlowNotFound):
		return http.StatusNotFound
	case errors.Is(err, planchange.ErrTargetRequired):
		return http.StatusBadRequest
	case errors.Is(err, planchange.ErrSamePlan),
		errors.Is(err, planchange.ErrInvalidTransition),
		errors.Is(err, planchange.ErrStale):
		return http.StatusConflict
	case errors.Is(err, plan.ErrPlanNotFound),
		errors.Is(err, proration.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	case errors.Is(err, billing.ErrCheckoutService):
		return http.StatusBadGateway
	case errors.Is(err, proration.ErrCalculationServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a short message for err. Backend detail stays in the
// log. data, when not nil, is the flow as it stands after the failure.
func (r *Router) respondError(c *gin.Context, err error, data any) {
	status := statusFor(err)
	desc := planchange.Describe(err)

	if status >= http.StatusInternalServerError {
		r.logger.Error("plan change request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", desc.Code),
			zap.Error(err),
		)
	}

	body := gin.H{
		"error":     desc.Code,
		"message":   desc.Message,
		"retryable": desc.Retryable,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}
