package functions

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/railzwaylabs/planchange/internal/proration"
	"github.com/railzwaylabs/planchange/pkg/billingclient"
)

// ProrationClient is the subset of billingclient.Client the calculator needs.
type ProrationClient interface {
	CalculateProration(ctx context.Context, req billingclient.ProrationRequest) (*billingclient.ProrationResponse, error)
}

// Calculator is the remote proration provider. Every failure, including a
// response that does not hold together, is reported as
// proration.ErrCalculationServiceUnavailable.
type Calculator struct {
	client ProrationClient
}

func NewCalculator(client ProrationClient) *Calculator {
	return &Calculator{client: client}
}

func (c *Calculator) Calculate(ctx context.Context, req proration.Request) (*proration.Result, error) {
	resp, err := c.client.CalculateProration(ctx, billingclient.ProrationRequest{
		NewPlanID:     req.NewPlanID,
		CurrentPlanID: req.CurrentPlanID,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%w: %w", proration.ErrCalculationServiceUnavailable, ctxErr)
		}
		return nil, fmt.Errorf("%w: %w", proration.ErrCalculationServiceUnavailable, err)
	}

	res, err := toResult(resp, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", proration.ErrCalculationServiceUnavailable, err)
	}
	return res, nil
}

var errMalformed = errors.New("malformed proration response")

func toResult(resp *billingclient.ProrationResponse, req proration.Request) (*proration.Result, error) {
	amountDue, err := whole("amountDue", resp.AmountDue)
	if err != nil {
		return nil, err
	}
	credit, err := whole("credit", resp.Credit)
	if err != nil {
		return nil, err
	}
	newAmount, err := whole("newAmount", resp.NewAmount)
	if err != nil {
		return nil, err
	}
	daysLeft, err := whole("daysLeft", resp.DaysLeft)
	if err != nil {
		return nil, err
	}
	totalDays, err := whole("totalDaysInPeriod", resp.TotalDaysInPeriod)
	if err != nil {
		return nil, err
	}

	date := resp.ProrationDate.Time
	if date.IsZero() {
		date = req.Now
	}

	res := &proration.Result{
		ProrationDate:     date,
		DaysElapsed:       int(totalDays - daysLeft),
		DaysLeft:          int(daysLeft),
		TotalDaysInPeriod: int(totalDays),
		Credit:            credit,
		NewPlanCharge:     newAmount,
		AmountDue:         amountDue,
		CurrentPlanID:     req.CurrentPlanID,
		NewPlanID:         req.NewPlanID,
		CurrentPlanName:   resp.CurrentPlanName,
		NewPlanName:       resp.NewPlanName,
		Source:            proration.SourceRemote,
	}
	if err := res.Validate(); err != nil {
		return nil, err
	}
	return res, nil
}

// whole requires a present, finite, integral number.
func whole(field string, v *float64) (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: %s missing", errMalformed, field)
	}
	f := *v
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %s=%v", errMalformed, field, f)
	}
	return int64(f), nil
}
