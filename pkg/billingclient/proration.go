package billingclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const prorationPath = "/calculate-proration"

type ProrationRequest struct {
	NewPlanID     string `json:"newPlanId"`
	CurrentPlanID string `json:"currentPlanId"`
}

// ProrationResponse mirrors the function payload. Numeric fields are pointers
// so a missing field can be told apart from a zero.
type ProrationResponse struct {
	ProrationDate     Timestamp `json:"prorationDate"`
	AmountDue         *float64  `json:"amountDue"`
	Credit            *float64  `json:"credit"`
	NewAmount         *float64  `json:"newAmount"`
	DaysLeft          *float64  `json:"daysLeft"`
	TotalDaysInPeriod *float64  `json:"totalDaysInPeriod"`
	CurrentPlanName   string    `json:"currentPlanName,omitempty"`
	NewPlanName       string    `json:"newPlanName,omitempty"`
}

// CalculateProration asks the hosted function for a plan change preview. The
// call is read-only, so transient failures are retried.
func (c *Client) CalculateProration(ctx context.Context, req ProrationRequest) (*ProrationResponse, error) {
	var resp ProrationResponse
	if err := c.doRequest(ctx, http.MethodPost, prorationPath, req, &resp, true); err != nil {
		return nil, fmt.Errorf("failed to calculate proration: %w", err)
	}
	return &resp, nil
}

// Timestamp accepts RFC 3339 strings as well as unix seconds.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			t.Time = time.Unix(secs, 0).UTC()
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		t.Time = parsed.UTC()
		return nil
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", raw, err)
	}
	t.Time = time.Unix(int64(secs), 0).UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
