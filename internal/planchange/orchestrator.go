package planchange

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/domain/billing"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/domain/subscription"
	"github.com/railzwaylabs/planchange/internal/proration"
	"github.com/railzwaylabs/planchange/pkg/metrics"
)

// IDGenerator issues flow ids.
type IDGenerator interface {
	GenerateID() int64
}

// Config tunes the orchestrator.
type Config struct {
	// CheckoutTimeout bounds a checkout session request. Zero means 15s.
	CheckoutTimeout time.Duration
}

// Orchestrator drives plan change flows: calculation, confirmation, checkout
// and redirect. Every operation is scoped to the caller's organization.
type Orchestrator struct {
	catalog       plan.Catalog
	subscriptions subscription.Repository
	calculator    proration.Provider
	checkout      billing.CheckoutProvider
	store         *Store
	ids           IDGenerator
	cfg           Config
	logger        *zap.Logger
	metrics       *metrics.Metrics
	now           func() time.Time
}

func NewOrchestrator(
	catalog plan.Catalog,
	subscriptions subscription.Repository,
	calculator proration.Provider,
	checkout billing.CheckoutProvider,
	store *Store,
	ids IDGenerator,
	cfg Config,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Orchestrator {
	if cfg.CheckoutTimeout <= 0 {
		cfg.CheckoutTimeout = 15 * time.Second
	}
	return &Orchestrator{
		catalog:       catalog,
		subscriptions: subscriptions,
		calculator:    calculator,
		checkout:      checkout,
		store:         store,
		ids:           ids,
		cfg:           cfg,
		logger:        logger,
		metrics:       m,
		now:           time.Now,
	}
}

// Subscription returns the organization's subscription. Organizations without
// a record are on the default plan.
func (o *Orchestrator) Subscription(ctx context.Context, orgID int64) (*subscription.Subscription, error) {
	sub, err := o.subscriptions.FindByOrgID(ctx, orgID)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return subscription.Implicit(orgID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return sub, nil
}

// Preview calculates proration for a target plan without opening a flow.
func (o *Orchestrator) Preview(ctx context.Context, orgID int64, targetPlanID string) (*proration.Result, error) {
	targetPlanID = strings.TrimSpace(targetPlanID)
	if targetPlanID == "" {
		return nil, ErrTargetRequired
	}

	sub, err := o.Subscription(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if targetPlanID == sub.ResolvedPlanID() {
		return nil, ErrSamePlan
	}

	req := o.request(sub, targetPlanID)
	if _, _, err := o.plans(ctx, req.CurrentPlanID, req.NewPlanID); err != nil {
		return nil, err
	}
	return o.calculator.Calculate(ctx, req)
}

// Start opens an Idle flow for the organization.
func (o *Orchestrator) Start(ctx context.Context, orgID int64) (*Snapshot, error) {
	sub, err := o.Subscription(ctx, orgID)
	if err != nil {
		return nil, err
	}

	now := o.now()
	f := &flow{
		id:           o.ids.GenerateID(),
		orgID:        orgID,
		subscription: sub,
		state:        StateIdle,
		createdAt:    now,
		updatedAt:    now,
	}
	o.store.put(f)

	o.logger.Info("plan_change_started",
		zap.Int64("flow_id", f.id),
		zap.Int64("org_id", orgID),
		zap.String("current_plan_id", sub.ResolvedPlanID()),
	)
	return f.snapshot(), nil
}

// Get returns the current state of a flow.
func (o *Orchestrator) Get(_ context.Context, orgID, flowID int64) (*Snapshot, error) {
	f, err := o.store.get(flowID, orgID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot(), nil
}

// Select calculates proration for a target plan. A newer Select on the same
// flow supersedes this one; the superseded caller gets ErrStale and the
// result is dropped. Selecting the current plan returns ErrSamePlan and
// changes nothing.
func (o *Orchestrator) Select(ctx context.Context, orgID, flowID int64, targetPlanID string) (*Snapshot, error) {
	targetPlanID = strings.TrimSpace(targetPlanID)
	if targetPlanID == "" {
		return nil, ErrTargetRequired
	}

	f, err := o.store.get(flowID, orgID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if targetPlanID == f.subscription.ResolvedPlanID() {
		snap := f.snapshot()
		f.mu.Unlock()
		return snap, ErrSamePlan
	}
	if err := o.transition(f, StateCalculating); err != nil {
		snap := f.snapshot()
		f.mu.Unlock()
		return snap, err
	}

	f.reset()
	f.generation++
	f.targetID = targetPlanID
	gen := f.generation

	// Only Cancel or a newer selection abort the calculation. A caller that
	// goes away leaves the flow to finish in the background.
	calcCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	f.cancel = cancel
	req := o.request(f.subscription, targetPlanID)
	f.mu.Unlock()

	current, target, calcErr := o.plans(calcCtx, req.CurrentPlanID, req.NewPlanID)
	var res *proration.Result
	if calcErr == nil {
		res, calcErr = o.calculator.Calculate(calcCtx, req)
	}
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.generation != gen || f.state != StateCalculating {
		o.discard(f, gen, "calculation")
		return f.snapshot(), ErrStale
	}
	f.cancel = nil

	if calcErr != nil {
		o.fail(f, calcErr)
		return f.snapshot(), calcErr
	}

	f.result = res
	f.target = target
	f.change = plan.ClassifyChange(current, target)
	_ = o.transition(f, StateCalculated)
	return f.snapshot(), nil
}

// Proceed moves a calculated flow to confirmation. Nothing is sent anywhere.
func (o *Orchestrator) Proceed(_ context.Context, orgID, flowID int64) (*Snapshot, error) {
	f, err := o.store.get(flowID, orgID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateCalculated {
		return f.snapshot(), o.invalid(f, StateConfirmPending)
	}
	f.failure = nil
	_ = o.transition(f, StateConfirmPending)
	return f.snapshot(), nil
}

// Confirm requests a checkout session. On failure the flow returns to
// Calculated with the error attached so the user can retry.
func (o *Orchestrator) Confirm(ctx context.Context, orgID, flowID int64) (*Snapshot, error) {
	f, err := o.store.get(flowID, orgID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	if f.state != StateConfirmPending {
		snap := f.snapshot()
		err := o.invalid(f, StateProcessing)
		f.mu.Unlock()
		return snap, err
	}
	if err := f.result.Validate(); err != nil {
		o.fail(f, err)
		snap := f.snapshot()
		f.mu.Unlock()
		return snap, err
	}

	_ = o.transition(f, StateProcessing)
	f.generation++
	f.attempts++
	gen := f.generation

	req := billing.CheckoutRequest{
		Intent:                billing.IntentPlanChange,
		OrgID:                 f.orgID,
		NewPlanID:             f.targetID,
		CurrentPlanID:         f.subscription.ResolvedPlanID(),
		SubscriptionReference: f.subscription.Reference(),
		IdempotencyKey:        fmt.Sprintf("plan-change-%d-%d", f.id, f.attempts),
	}
	if f.target != nil {
		req.ExternalPriceID = f.target.ExternalPriceID
	}
	f.mu.Unlock()

	checkoutCtx, cancel := context.WithTimeout(ctx, o.cfg.CheckoutTimeout)
	session, checkoutErr := o.checkout.CreateCheckoutSession(checkoutCtx, req)
	cancel()

	if checkoutErr != nil && !errors.Is(checkoutErr, billing.ErrCheckoutService) {
		checkoutErr = fmt.Errorf("%w: %w", billing.ErrCheckoutService, checkoutErr)
	}
	o.metrics.RecordCheckout(checkoutErr == nil)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.generation != gen || f.state != StateProcessing {
		o.discard(f, gen, "checkout")
		return f.snapshot(), ErrStale
	}

	if checkoutErr != nil {
		o.fail(f, checkoutErr)
		_ = o.transition(f, StateCalculated)
		return f.snapshot(), checkoutErr
	}

	f.checkoutURL = session.URL
	_ = o.transition(f, StateRedirected)
	o.logger.Info("plan_change_redirected",
		zap.Int64("flow_id", f.id),
		zap.Int64("org_id", f.orgID),
		zap.String("session_id", session.ID),
	)
	return f.snapshot(), nil
}

// Acknowledge clears a failure and returns the flow to Idle.
func (o *Orchestrator) Acknowledge(_ context.Context, orgID, flowID int64) (*Snapshot, error) {
	f, err := o.store.get(flowID, orgID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StateFailed {
		return f.snapshot(), o.invalid(f, StateIdle)
	}
	f.reset()
	_ = o.transition(f, StateIdle)
	return f.snapshot(), nil
}

// Cancel abandons the flow. An in-flight calculation is aborted and any
// result that still arrives is dropped. A checkout already sent is not
// recalled, only ignored.
func (o *Orchestrator) Cancel(_ context.Context, orgID, flowID int64) (*Snapshot, error) {
	f, err := o.store.get(flowID, orgID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state == StateIdle {
		return f.snapshot(), nil
	}
	if err := o.transition(f, StateIdle); err != nil {
		return f.snapshot(), err
	}
	f.generation++
	f.reset()
	return f.snapshot(), nil
}

func (o *Orchestrator) request(sub *subscription.Subscription, targetPlanID string) proration.Request {
	return proration.Request{
		CurrentPlanID: sub.ResolvedPlanID(),
		NewPlanID:     targetPlanID,
		PeriodEnd:     sub.CurrentPeriodEnd,
		Now:           o.now(),
	}
}

// plans resolves both sides of a change through the catalog. A remote
// calculator may price ids the catalog does not offer.
func (o *Orchestrator) plans(ctx context.Context, currentID, targetID string) (*plan.Plan, *plan.Plan, error) {
	current, err := o.catalog.GetPlan(ctx, currentID)
	if err != nil {
		return nil, nil, fmt.Errorf("current plan %s: %w", currentID, err)
	}
	target, err := o.catalog.GetPlan(ctx, targetID)
	if err != nil {
		return nil, nil, fmt.Errorf("target plan %s: %w", targetID, err)
	}
	return current, target, nil
}

// transition must be called with f.mu held.
func (o *Orchestrator) transition(f *flow, to State) error {
	from := f.state
	if !CanTransition(from, to) {
		return o.invalid(f, to)
	}

	f.state = to
	f.updatedAt = o.now()

	o.metrics.RecordTransition(string(from), string(to))
	o.logger.Info("plan_change_transition",
		zap.Int64("flow_id", f.id),
		zap.Int64("org_id", f.orgID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Uint64("generation", f.generation),
	)
	return nil
}

func (o *Orchestrator) invalid(f *flow, to State) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.state, to)
}

// fail records err and moves the flow to Failed. f.mu must be held.
func (o *Orchestrator) fail(f *flow, err error) {
	fe := Describe(err)
	f.failure = &fe

	o.logger.Warn("plan_change_failed",
		zap.Int64("flow_id", f.id),
		zap.Int64("org_id", f.orgID),
		zap.String("state", string(f.state)),
		zap.String("code", fe.Code),
		zap.Error(err),
	)
	_ = o.transition(f, StateFailed)
}

func (o *Orchestrator) discard(f *flow, gen uint64, what string) {
	o.logger.Info("plan_change_result_discarded",
		zap.Int64("flow_id", f.id),
		zap.String("kind", what),
		zap.Uint64("generation", gen),
		zap.Uint64("current_generation", f.generation),
	)
}
