package catalog

import (
	"context"
	"slices"
	"sort"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

func features(names ...string) map[string]plan.Feature {
	out := make(map[string]plan.Feature, len(names))
	for _, n := range names {
		out[n] = plan.Feature{Enabled: true}
	}
	return out
}

// DefaultPlans returns the tiers every deployment starts with. Prices are in
// the smallest currency unit.
func DefaultPlans() []plan.Plan {
	core := []string{"hr", "attendance", "leave"}
	pro := slices.Concat(core, []string{"payroll", "inventory", "reports"})
	enterprise := slices.Concat(pro, []string{"marketing", "api_access", "audit_log", "sso"})

	return []plan.Plan{
		{
			ID:         plan.Basic,
			Name:       "Basic",
			Price:      0,
			Interval:   plan.IntervalMonthly,
			Features:   features(core...),
			MaxMembers: 5,
		},
		{
			ID:         plan.ProfessionalMonthly,
			Name:       "Professional",
			Price:      299000,
			Interval:   plan.IntervalMonthly,
			Features:   features(pro...),
			MaxMembers: 50,
		},
		{
			ID:         plan.ProfessionalYearly,
			Name:       "Professional (Yearly)",
			Price:      2990000,
			Interval:   plan.IntervalYearly,
			Features:   features(pro...),
			MaxMembers: 50,
		},
		{
			ID:         plan.EnterpriseMonthly,
			Name:       "Enterprise",
			Price:      599000,
			Interval:   plan.IntervalMonthly,
			Features:   features(enterprise...),
			MaxMembers: plan.Unlimited,
		},
		{
			ID:         plan.EnterpriseYearly,
			Name:       "Enterprise (Yearly)",
			Price:      5990000,
			Interval:   plan.IntervalYearly,
			Features:   features(enterprise...),
			MaxMembers: plan.Unlimited,
		},
	}
}

// Static is an in-memory catalog. It backs tests and deployments without a
// database.
type Static struct {
	plans map[string]plan.Plan
}

func NewStatic(plans []plan.Plan) *Static {
	m := make(map[string]plan.Plan, len(plans))
	for _, p := range plans {
		m[p.ID] = p
	}
	return &Static{plans: m}
}

func (s *Static) GetPlan(_ context.Context, id string) (*plan.Plan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, plan.ErrPlanNotFound
	}
	return &p, nil
}

func (s *Static) ListPlans(_ context.Context) ([]plan.Plan, error) {
	out := make([]plan.Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	SortPlans(out)
	return out, nil
}

// SortPlans orders plans by price, then id.
func SortPlans(plans []plan.Plan) {
	sort.SliceStable(plans, func(i, j int) bool {
		if plans[i].Price != plans[j].Price {
			return plans[i].Price < plans[j].Price
		}
		return plans[i].ID < plans[j].ID
	})
}
