package stripe

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	checkoutsession "github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/railzwaylabs/planchange/internal/domain/billing"
)

// Config holds Stripe checkout settings.
type Config struct {
	SecretKey  string
	SuccessURL string
	CancelURL  string
	// APIURL overrides the Stripe endpoint. Empty uses the public API.
	APIURL     string
	HTTPClient *http.Client
}

// Checkout opens subscription-mode Checkout Sessions for the target plan's
// price. The plan swap itself is applied by the billing webhook after payment.
type Checkout struct {
	sessions *checkoutsession.Client
	cfg      Config
}

func NewCheckout(cfg Config) *Checkout {
	backendCfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}
	if cfg.HTTPClient != nil {
		backendCfg.HTTPClient = cfg.HTTPClient
	}

	return &Checkout{
		sessions: &checkoutsession.Client{
			B:   stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
			Key: cfg.SecretKey,
		},
		cfg: cfg,
	}
}

func (c *Checkout) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	if req.ExternalPriceID == "" {
		return nil, fmt.Errorf("%w: no stripe price configured for plan %s", billing.ErrCheckoutService, req.NewPlanID)
	}

	metadata := map[string]string{
		"intent":                 string(req.Intent),
		"organization_id":        strconv.FormatInt(req.OrgID, 10),
		"subscription_reference": req.SubscriptionReference,
		"current_plan_id":        req.CurrentPlanID,
		"new_plan_id":            req.NewPlanID,
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.ExternalPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(req.SubscriptionReference),
		SuccessURL:        stripe.String(c.cfg.SuccessURL),
		CancelURL:         stripe.String(c.cfg.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	sess, err := c.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", billing.ErrCheckoutService, err)
	}
	if sess.URL == "" {
		return nil, fmt.Errorf("%w: session %s has no url", billing.ErrCheckoutService, sess.ID)
	}

	return &billing.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
