package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/railzwaylabs/planchange/internal/auth"
	"github.com/railzwaylabs/planchange/internal/catalog"
	"github.com/railzwaylabs/planchange/internal/config"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/domain/subscription"
	"github.com/railzwaylabs/planchange/internal/planchange"
	"github.com/railzwaylabs/planchange/internal/proration"
	"github.com/railzwaylabs/planchange/pkg/metrics"
	"github.com/railzwaylabs/planchange/pkg/snowflake"
	"github.com/railzwaylabs/planchange/pkg/testhelper"
)

const (
	testSecret     = "test-secret"
	testAdminToken = "admin-token"
	proOrg         = int64(7)
	otherOrg       = int64(8)
)

type subscriptionRepo map[int64]*subscription.Subscription

func (r subscriptionRepo) FindByOrgID(_ context.Context, orgID int64) (*subscription.Subscription, error) {
	sub, ok := r[orgID]
	if !ok {
		return nil, subscription.ErrSubscriptionNotFound
	}
	return sub, nil
}

type flowResponse struct {
	Data      planchange.Snapshot `json:"data"`
	Error     string              `json:"error"`
	Retryable bool                `json:"retryable"`
	Noop      bool                `json:"noop"`
}

type testServer struct {
	router   *Router
	checkout *testhelper.MockCheckoutProvider
	t        *testing.T
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Port:          "0",
		AuthJWTSecret: testSecret,
		AdminAPIToken: testAdminToken,
	}
	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())

	cached := catalog.NewCached(catalog.NewStatic(catalog.DefaultPlans()), catalog.NewMemoryCache(16, time.Minute), logger)

	end := time.Now().Add(100 * 24 * time.Hour)
	subs := subscriptionRepo{
		proOrg: {
			ID:               "sub_7",
			OrgID:            proOrg,
			PlanID:           plan.ProfessionalMonthly,
			CurrentPeriodEnd: &end,
			Status:           subscription.StatusActive,
		},
	}

	node, err := snowflake.NewNodeWithID(1)
	require.NoError(t, err)

	checkout := &testhelper.MockCheckoutProvider{}
	store := planchange.NewStore(time.Hour, logger, m)
	orch := planchange.NewOrchestrator(cached, subs, proration.NewLocal(cached), checkout, store, node,
		planchange.Config{CheckoutTimeout: time.Second}, logger, m)

	r := NewRouter(cfg, cached, cached, orch, auth.NewMiddleware(cfg, logger), m, logger)
	r.streamInterval = 10 * time.Millisecond
	return &testServer{router: r, checkout: checkout, t: t}
}

func (s *testServer) do(method, path string, orgID int64, body any) *httptest.ResponseRecorder {
	s.t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if orgID != 0 {
		req.Header.Set("Authorization", "Bearer "+testhelper.IssueToken(s.t, testSecret, orgID, "user_1"))
	}

	w := httptest.NewRecorder()
	s.router.Handler().ServeHTTP(w, req)
	return w
}

func decodeFlow(t *testing.T, w *httptest.ResponseRecorder) flowResponse {
	t.Helper()
	var resp flowResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func flowPath(id int64, action string) string {
	path := "/user/plan-change/" + strconv.FormatInt(id, 10)
	if action != "" {
		path += "/" + action
	}
	return path
}

func (s *testServer) startFlow(orgID int64) int64 {
	s.t.Helper()
	w := s.do(http.MethodPost, "/user/plan-change", orgID, nil)
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeFlow(s.t, w)
	require.Equal(s.t, planchange.StateIdle, resp.Data.State)
	return resp.Data.ID
}

func TestRouter_Health(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRouter_ListPlans(t *testing.T) {
	s := newTestServer(t)

	var resp struct {
		Data []plan.Plan `json:"data"`
	}

	w := s.do(http.MethodGet, "/api/plans", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 5)
	assert.Equal(t, plan.Basic, resp.Data[0].ID)

	w = s.do(http.MethodGet, "/api/plans?interval=yearly", 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	for _, p := range resp.Data {
		assert.Equal(t, plan.IntervalYearly, p.Interval)
	}
}

func TestRouter_GetPlan(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/plans/"+plan.EnterpriseMonthly, 0, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"enterprise_monthly"`)

	w = s.do(http.MethodGet, "/api/plans/missing", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_PreviewProration(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/api/proration/preview", 0, previewBody(plan.EnterpriseMonthly))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/proration/preview", proOrg, previewBody(plan.EnterpriseMonthly))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data proration.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 30, resp.Data.DaysLeft)
	assert.Equal(t, int64(299000), resp.Data.Credit)
	assert.Equal(t, int64(599000), resp.Data.NewPlanCharge)
	assert.Equal(t, int64(300000), resp.Data.AmountDue)
	assert.Equal(t, proration.SourceLocal, resp.Data.Source)

	w = s.do(http.MethodPost, "/api/proration/preview", proOrg, previewBody(plan.ProfessionalMonthly))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/proration/preview", proOrg, previewBody("missing"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/proration/preview", proOrg, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// previewBody builds a preview request.
func previewBody(planID string) map[string]string {
	return map[string]string{"new_plan_id": planID}
}

func TestRouter_GetSubscription_Implicit(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/user/subscription", otherOrg, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plan_id":"basic"`)
}

func TestRouter_PlanChangeHappyPath(t *testing.T) {
	s := newTestServer(t)
	id := s.startFlow(proOrg)

	w := s.do(http.MethodPost, flowPath(id, "select"), proOrg, map[string]string{"plan_id": plan.EnterpriseMonthly})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeFlow(t, w)
	assert.Equal(t, planchange.StateCalculated, resp.Data.State)
	require.NotNil(t, resp.Data.Proration)
	assert.Equal(t, int64(300000), resp.Data.Proration.AmountDue)
	assert.Equal(t, plan.ChangeUpgrade, resp.Data.Change)

	w = s.do(http.MethodPost, flowPath(id, "proceed"), proOrg, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, planchange.StateConfirmPending, decodeFlow(t, w).Data.State)

	w = s.do(http.MethodPost, flowPath(id, "confirm"), proOrg, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decodeFlow(t, w)
	assert.Equal(t, planchange.StateRedirected, resp.Data.State)
	assert.Equal(t, "https://checkout.example.com/session/enterprise_monthly", resp.Data.CheckoutURL)

	calls := s.checkout.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, plan.EnterpriseMonthly, calls[0].NewPlanID)
	assert.Equal(t, plan.ProfessionalMonthly, calls[0].CurrentPlanID)

	w = s.do(http.MethodGet, flowPath(id, ""), proOrg, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, planchange.StateRedirected, decodeFlow(t, w).Data.State)

	w = s.do(http.MethodPost, flowPath(id, "cancel"), proOrg, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_SelectSamePlanIsNoop(t *testing.T) {
	s := newTestServer(t)
	id := s.startFlow(proOrg)

	w := s.do(http.MethodPost, flowPath(id, "select"), proOrg, map[string]string{"plan_id": plan.ProfessionalMonthly})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeFlow(t, w)
	assert.True(t, resp.Noop)
	assert.Equal(t, planchange.StateIdle, resp.Data.State)
}

func TestRouter_SelectRequiresPlan(t *testing.T) {
	s := newTestServer(t)
	id := s.startFlow(proOrg)

	w := s.do(http.MethodPost, flowPath(id, "select"), proOrg, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, planchange.CodeTargetRequired, decodeFlow(t, w).Error)
}

func TestRouter_ConfirmOutOfOrder(t *testing.T) {
	s := newTestServer(t)
	id := s.startFlow(proOrg)

	w := s.do(http.MethodPost, flowPath(id, "confirm"), proOrg, nil)
	require.Equal(t, http.StatusConflict, w.Code)
	resp := decodeFlow(t, w)
	assert.Equal(t, planchange.CodeInvalidTransition, resp.Error)
	assert.Equal(t, planchange.StateIdle, resp.Data.State)
	assert.Empty(t, s.checkout.Calls())
}

func TestRouter_CheckoutFailureReturnsToCalculated(t *testing.T) {
	s := newTestServer(t)
	s.checkout.SetShouldFail(true)
	id := s.startFlow(proOrg)

	w := s.do(http.MethodPost, flowPath(id, "select"), proOrg, map[string]string{"plan_id": plan.EnterpriseMonthly})
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(http.MethodPost, flowPath(id, "proceed"), proOrg, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, flowPath(id, "confirm"), proOrg, nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	resp := decodeFlow(t, w)
	assert.Equal(t, planchange.CodeCheckoutFailed, resp.Error)
	assert.True(t, resp.Retryable)
	assert.Equal(t, planchange.StateCalculated, resp.Data.State)
	require.NotNil(t, resp.Data.Error)
	assert.NotContains(t, resp.Data.Error.Message, "mock")
}

func TestRouter_FlowIsScopedToOrganization(t *testing.T) {
	s := newTestServer(t)
	id := s.startFlow(proOrg)

	w := s.do(http.MethodGet, flowPath(id, ""), otherOrg, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, flowPath(id, ""), 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/user/plan-change/not-a-number", proOrg, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_StreamEndsWhenRedirected(t *testing.T) {
	s := newTestServer(t)
	id := s.startFlow(proOrg)

	s.do(http.MethodPost, flowPath(id, "select"), proOrg, map[string]string{"plan_id": plan.EnterpriseMonthly})
	s.do(http.MethodPost, flowPath(id, "proceed"), proOrg, nil)
	s.do(http.MethodPost, flowPath(id, "confirm"), proOrg, nil)

	w := s.do(http.MethodGet, flowPath(id, "stream"), proOrg, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "retry: 3000\n\n"))
	assert.Contains(t, body, "data: ")
	assert.Contains(t, body, `"state":"redirected"`)
}

func TestRouter_StreamUnknownFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, flowPath(12345, "stream"), proOrg, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_InvalidateCatalog(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodPost, "/admin/catalog/invalidate", 0, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/admin/catalog/invalidate", nil)
	req.Header.Set("X-Admin-Token", testAdminToken)
	rec := httptest.NewRecorder()
	s.router.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"invalidated"}`, rec.Body.String())
}

func TestRouter_UnknownAPIRouteIsJSON(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/unknown", 0, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found"}`, w.Body.String())
}
