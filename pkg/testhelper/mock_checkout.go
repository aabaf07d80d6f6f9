package testhelper

import (
	"context"
	"fmt"
	"sync"

	"github.com/railzwaylabs/planchange/internal/domain/billing"
)

// MockCheckoutProvider is a mock implementation of billing.CheckoutProvider for testing
type MockCheckoutProvider struct {
	mu    sync.Mutex
	calls []billing.CheckoutRequest

	ShouldFail bool
	URL        string
	// Block, when set, holds every call until it is closed or the context ends.
	Block chan struct{}
}

// CreateCheckoutSession mocks the CreateCheckoutSession method
func (m *MockCheckoutProvider) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fail := m.ShouldFail
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", billing.ErrCheckoutService, ctx.Err())
		}
	}

	if fail {
		return nil, fmt.Errorf("%w: mock checkout failed", billing.ErrCheckoutService)
	}

	url := m.URL
	if url == "" {
		url = "https://checkout.example.com/session/" + req.NewPlanID
	}
	return &billing.CheckoutSession{ID: "cs_" + req.NewPlanID, URL: url}, nil
}

// SetShouldFail toggles failures while calls may be running.
func (m *MockCheckoutProvider) SetShouldFail(fail bool) {
	m.mu.Lock()
	m.ShouldFail = fail
	m.mu.Unlock()
}

// Calls returns a copy of the recorded requests.
func (m *MockCheckoutProvider) Calls() []billing.CheckoutRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]billing.CheckoutRequest(nil), m.calls...)
}
