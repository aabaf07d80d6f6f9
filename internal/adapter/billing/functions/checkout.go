package functions

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/railzwaylabs/planchange/internal/domain/billing"
	"github.com/railzwaylabs/planchange/pkg/billingclient"
)

// CheckoutClient is the subset of billingclient.Client the provider needs.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, req billingclient.CheckoutSessionRequest) (*billingclient.CheckoutSessionResponse, error)
}

// Checkout opens sessions through the hosted checkout function.
type Checkout struct {
	client CheckoutClient
}

func NewCheckout(client CheckoutClient) *Checkout {
	return &Checkout{client: client}
}

func (c *Checkout) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	resp, err := c.client.CreateCheckoutSession(ctx, billingclient.CheckoutSessionRequest{
		Intent:                string(req.Intent),
		NewPlanID:             req.NewPlanID,
		CurrentPlanID:         req.CurrentPlanID,
		SubscriptionReference: req.SubscriptionReference,
		OrganizationID:        strconv.FormatInt(req.OrgID, 10),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", billing.ErrCheckoutService, err)
	}

	u, err := url.Parse(resp.CheckoutURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid checkout url %q", billing.ErrCheckoutService, resp.CheckoutURL)
	}

	return &billing.CheckoutSession{ID: resp.SessionID, URL: resp.CheckoutURL}, nil
}
