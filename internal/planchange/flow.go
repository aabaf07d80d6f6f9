package planchange

import (
	"context"
	"sync"
	"time"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/domain/subscription"
	"github.com/railzwaylabs/planchange/internal/proration"
)

// flow is guarded by mu. The orchestrator never holds mu across a remote
// call; generation tells a returning call whether it is still current.
type flow struct {
	mu sync.Mutex

	id           int64
	orgID        int64
	subscription *subscription.Subscription

	state      State
	generation uint64

	target      *plan.Plan
	targetID    string
	change      plan.ChangeKind
	result      *proration.Result
	checkoutURL string
	failure     *FlowError
	attempts    int

	// cancel aborts the in-flight calculation, if any.
	cancel context.CancelFunc

	createdAt time.Time
	updatedAt time.Time
}

// Snapshot is a consistent copy of a flow.
type Snapshot struct {
	ID            int64             `json:"id,string"`
	OrgID         int64             `json:"org_id,string"`
	State         State             `json:"state"`
	Generation    uint64            `json:"generation"`
	CurrentPlanID string            `json:"current_plan_id"`
	TargetPlanID  string            `json:"target_plan_id,omitempty"`
	Change        plan.ChangeKind   `json:"change,omitempty"`
	Proration     *proration.Result `json:"proration,omitempty"`
	CheckoutURL   string            `json:"checkout_url,omitempty"`
	Error         *FlowError        `json:"error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func (f *flow) snapshot() *Snapshot {
	s := &Snapshot{
		ID:            f.id,
		OrgID:         f.orgID,
		State:         f.state,
		Generation:    f.generation,
		CurrentPlanID: f.subscription.ResolvedPlanID(),
		TargetPlanID:  f.targetID,
		Change:        f.change,
		CheckoutURL:   f.checkoutURL,
		CreatedAt:     f.createdAt,
		UpdatedAt:     f.updatedAt,
	}
	if f.result != nil {
		res := *f.result
		s.Proration = &res
	}
	if f.failure != nil {
		fe := *f.failure
		s.Error = &fe
	}
	return s
}

// reset drops the selection and everything derived from it.
func (f *flow) reset() {
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.target = nil
	f.targetID = ""
	f.change = ""
	f.result = nil
	f.checkoutURL = ""
	f.failure = nil
}
