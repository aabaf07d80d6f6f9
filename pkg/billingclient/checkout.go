package billingclient

import (
	"context"
	"fmt"
	"net/http"
)

const checkoutPath = "/create-checkout"

type CheckoutSessionRequest struct {
	Intent                string `json:"intent"`
	NewPlanID             string `json:"newPlanId"`
	CurrentPlanID         string `json:"currentPlanId"`
	SubscriptionReference string `json:"subscriptionReference"`
	OrganizationID        string `json:"organizationId,omitempty"`
}

type CheckoutSessionResponse struct {
	SessionID   string `json:"sessionId,omitempty"`
	CheckoutURL string `json:"checkoutUrl"`
}

// CreateCheckoutSession opens a hosted checkout for a plan change. It is never
// retried.
func (c *Client) CreateCheckoutSession(ctx context.Context, req CheckoutSessionRequest) (*CheckoutSessionResponse, error) {
	var resp CheckoutSessionResponse
	if err := c.doRequest(ctx, http.MethodPost, checkoutPath, req, &resp, false); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &resp, nil
}
