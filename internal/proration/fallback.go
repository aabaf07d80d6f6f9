package proration

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/pkg/metrics"
)

// Fallback prefers the primary provider and recovers any primary failure with
// the secondary. Errors from the secondary, such as plan.ErrPlanNotFound, are
// returned unchanged.
type Fallback struct {
	primary   Provider
	secondary Provider
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// NewFallback bounds each primary call by timeout when it is positive. A nil
// primary always uses the secondary.
func NewFallback(primary, secondary Provider, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Fallback {
	return &Fallback{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
		logger:    logger,
		metrics:   m,
	}
}

func (f *Fallback) Calculate(ctx context.Context, req Request) (*Result, error) {
	if f.primary != nil {
		res, err := f.callPrimary(ctx, req)
		if err == nil {
			f.metrics.RecordProration(string(SourceRemote))
			return res, nil
		}

		// The caller gave up; the secondary would be discarded too.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		reason := fallbackReason(err)
		f.metrics.RecordFallback(reason)
		f.logger.Warn("proration_remote_failed",
			zap.String("current_plan_id", req.CurrentPlanID),
			zap.String("new_plan_id", req.NewPlanID),
			zap.String("reason", reason),
			zap.Error(err),
		)
	}

	res, err := f.secondary.Calculate(ctx, req)
	if err != nil {
		return nil, err
	}
	f.metrics.RecordProration(string(SourceLocal))
	return res, nil
}

func (f *Fallback) callPrimary(ctx context.Context, req Request) (*Result, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	res, err := f.primary.Calculate(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_response"
	default:
		return "unavailable"
	}
}
