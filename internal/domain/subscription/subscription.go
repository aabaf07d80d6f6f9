package subscription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

// Status of an organization's subscription.
type Status string

const (
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

// Subscription is read-only here. Plan swaps happen in the billing system
// after payment and are synced back by it.
type Subscription struct {
	ID               string     `json:"id"`
	OrgID            int64      `json:"org_id,string"`
	PlanID           string     `json:"plan_id"`
	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`
	Status           Status     `json:"status"`
}

// Implicit describes an organization that never subscribed. It sits on the
// default tier.
func Implicit(orgID int64) *Subscription {
	return &Subscription{
		OrgID:  orgID,
		PlanID: plan.DefaultID,
		Status: StatusInactive,
	}
}

// ResolvedPlanID never returns an empty id.
func (s *Subscription) ResolvedPlanID() string {
	if id := strings.TrimSpace(s.PlanID); id != "" {
		return id
	}
	return plan.DefaultID
}

// Reference identifies the subscription to the billing system. Organizations
// without a subscription record are referenced by org.
func (s *Subscription) Reference() string {
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("org_%d", s.OrgID)
}

// Repository reads subscription records.
type Repository interface {
	// FindByOrgID returns ErrSubscriptionNotFound when the organization has
	// no record.
	FindByOrgID(ctx context.Context, orgID int64) (*Subscription, error)
}
