package testhelper

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// MockBillingServer fakes the hosted billing functions.
type MockBillingServer struct {
	Server *httptest.Server

	ProrationRequests atomic.Int32
	CheckoutRequests  atomic.Int32

	// ProrationStatus overrides the proration response status when non-zero.
	ProrationStatus int
	// ProrationBody replaces the proration response body when set.
	ProrationBody string
	// CheckoutStatus overrides the checkout response status when non-zero.
	CheckoutStatus int
	CheckoutURL    string
}

// NewMockBillingServer answers every proration request with a fixed
// professional to enterprise preview.
func NewMockBillingServer(t *testing.T) *MockBillingServer {
	mock := &MockBillingServer{CheckoutURL: "https://checkout.example.com/session/cs_mock"}

	mux := http.NewServeMux()

	mux.HandleFunc("/calculate-proration", func(w http.ResponseWriter, r *http.Request) {
		mock.ProrationRequests.Add(1)
		if mock.ProrationStatus != 0 {
			w.WriteHeader(mock.ProrationStatus)
			w.Write([]byte(`{"error":"proration failed"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if mock.ProrationBody != "" {
			w.Write([]byte(mock.ProrationBody))
			return
		}
		w.Write([]byte(`{
			"prorationDate":"2024-03-10T09:00:00Z",
			"amountDue":150000,
			"credit":149500,
			"newAmount":299500,
			"daysLeft":15,
			"totalDaysInPeriod":30,
			"currentPlanName":"Professional",
			"newPlanName":"Enterprise"
		}`))
	})

	mux.HandleFunc("/create-checkout", func(w http.ResponseWriter, r *http.Request) {
		mock.CheckoutRequests.Add(1)
		if mock.CheckoutStatus != 0 {
			w.WriteHeader(mock.CheckoutStatus)
			w.Write([]byte(`{"error":"checkout failed"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sessionId":   "cs_mock",
			"checkoutUrl": mock.CheckoutURL,
		})
	})

	mock.Server = httptest.NewServer(mux)
	t.Cleanup(mock.Server.Close)

	return mock
}

// URL returns the base URL of the mock server
func (m *MockBillingServer) URL() string {
	return m.Server.URL
}
