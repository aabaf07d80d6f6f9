package billing

import (
	"context"
	"errors"
)

// CheckoutIntent tells the billing system what the session is for.
type CheckoutIntent string

const (
	IntentPlanChange CheckoutIntent = "plan_change"
)

// ErrCheckoutService wraps every failure to obtain a checkout session.
var ErrCheckoutService = errors.New("checkout service error")

// CheckoutRequest carries everything a provider needs to open a session for a
// plan change.
type CheckoutRequest struct {
	Intent                CheckoutIntent
	OrgID                 int64
	NewPlanID             string
	CurrentPlanID         string
	SubscriptionReference string
	// ExternalPriceID is the target plan's price at the payment provider, if any.
	ExternalPriceID string
	// IdempotencyKey is unique per confirmation attempt.
	IdempotencyKey string
}

// CheckoutSession is the hosted page the user is sent to.
type CheckoutSession struct {
	ID  string
	URL string
}

// CheckoutProvider opens hosted checkout sessions.
type CheckoutProvider interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
}
