package proration

import (
	"context"
	"fmt"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

// Local resolves both plans from the catalog and applies Compute.
type Local struct {
	catalog plan.Catalog
}

func NewLocal(catalog plan.Catalog) *Local {
	return &Local{catalog: catalog}
}

func (l *Local) Calculate(ctx context.Context, req Request) (*Result, error) {
	current, err := l.catalog.GetPlan(ctx, req.CurrentPlanID)
	if err != nil {
		return nil, fmt.Errorf("current plan %q: %w", req.CurrentPlanID, err)
	}

	target, err := l.catalog.GetPlan(ctx, req.NewPlanID)
	if err != nil {
		return nil, fmt.Errorf("new plan %q: %w", req.NewPlanID, err)
	}

	res := Compute(current, target, req.PeriodEnd, req.Now)
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}
