package plan

import (
	"context"
	"errors"
)

// Interval is the billing cadence of a plan.
type Interval string

const (
	IntervalMonthly Interval = "monthly"
	IntervalYearly  Interval = "yearly"
)

// Valid reports whether the interval is one the catalog supports.
func (i Interval) Valid() bool {
	return i == IntervalMonthly || i == IntervalYearly
}

// Stable identifiers of the default tiers.
const (
	Basic               = "basic"
	ProfessionalMonthly = "professional_monthly"
	ProfessionalYearly  = "professional_yearly"
	EnterpriseMonthly   = "enterprise_monthly"
	EnterpriseYearly    = "enterprise_yearly"

	// DefaultID is used when a subscription carries no plan.
	DefaultID = Basic
)

// Unlimited marks a plan without a member cap.
const Unlimited = -1

var ErrPlanNotFound = errors.New("plan not found")

// Feature is one entry of a plan's feature set.
type Feature struct {
	Enabled bool   `json:"enabled"`
	Value   string `json:"value,omitempty"`
}

// Plan is immutable reference data maintained by administrators.
type Plan struct {
	ID              string             `json:"id" validate:"required,max=64"`
	Name            string             `json:"name" validate:"required"`
	Price           int64              `json:"price" validate:"gte=0"`
	Interval        Interval           `json:"interval" validate:"required,oneof=monthly yearly"`
	Features        map[string]Feature `json:"features"`
	MaxMembers      int                `json:"max_members" validate:"eq=-1|gt=0"`
	ExternalPriceID string             `json:"external_price_id,omitempty"`
}

// IsUnlimited reports whether the plan has no member cap.
func (p *Plan) IsUnlimited() bool {
	return p.MaxMembers == Unlimited
}

// AllowsMembers reports whether n members fit under the cap.
func (p *Plan) AllowsMembers(n int) bool {
	return p.IsUnlimited() || n <= p.MaxMembers
}

// HasFeature reports whether the named feature is enabled.
func (p *Plan) HasFeature(name string) bool {
	f, ok := p.Features[name]
	return ok && f.Enabled
}

// MonthlyEquivalent normalizes the price to one month for comparisons.
func (p *Plan) MonthlyEquivalent() int64 {
	if p.Interval == IntervalYearly {
		return p.Price / 12
	}
	return p.Price
}

// ChangeKind classifies a move between two plans.
type ChangeKind string

const (
	ChangeUpgrade   ChangeKind = "upgrade"
	ChangeDowngrade ChangeKind = "downgrade"
	ChangeLateral   ChangeKind = "lateral"
)

// ClassifyChange compares plans by monthly-equivalent price.
func ClassifyChange(current, target *Plan) ChangeKind {
	from, to := current.MonthlyEquivalent(), target.MonthlyEquivalent()
	switch {
	case to > from:
		return ChangeUpgrade
	case to < from:
		return ChangeDowngrade
	default:
		return ChangeLateral
	}
}

// Catalog resolves plans by identifier.
type Catalog interface {
	// GetPlan returns ErrPlanNotFound when the id does not resolve.
	GetPlan(ctx context.Context, id string) (*Plan, error)

	// ListPlans returns every plan, cheapest first.
	ListPlans(ctx context.Context) ([]Plan, error)
}
