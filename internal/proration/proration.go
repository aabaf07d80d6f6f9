package proration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/railzwaylabs/planchange/internal/domain/plan"
)

// TotalDaysInPeriod is applied to every plan regardless of interval. Billing
// history depends on it, so yearly plans are prorated over 30 days as well.
const TotalDaysInPeriod = 30

var (
	ErrCalculationServiceUnavailable = errors.New("calculation service unavailable")
	ErrInvalidAmount                 = errors.New("invalid proration amount")
)

// Source names the path that produced a result.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
)

// Request asks for the cost of moving from one plan to another.
type Request struct {
	CurrentPlanID string
	NewPlanID     string
	// PeriodEnd anchors the current billing period. Nil means now + 1 month.
	PeriodEnd *time.Time
	Now       time.Time
}

// Result is computed per request and never stored.
type Result struct {
	ProrationDate     time.Time `json:"proration_date"`
	DaysElapsed       int       `json:"days_elapsed"`
	DaysLeft          int       `json:"days_left"`
	TotalDaysInPeriod int       `json:"total_days_in_period"`
	Credit            int64     `json:"credit"`
	NewPlanCharge     int64     `json:"new_plan_charge"`
	AmountDue         int64     `json:"amount_due"`
	CurrentPlanID     string    `json:"current_plan_id"`
	NewPlanID         string    `json:"new_plan_id"`
	CurrentPlanName   string    `json:"current_plan_name"`
	NewPlanName       string    `json:"new_plan_name"`
	Source            Source    `json:"source"`
}

// Validate rejects results a checkout must never be opened for.
func (r *Result) Validate() error {
	if r.TotalDaysInPeriod <= 0 {
		return fmt.Errorf("%w: total days %d", ErrInvalidAmount, r.TotalDaysInPeriod)
	}
	if r.DaysLeft < 0 || r.DaysLeft > r.TotalDaysInPeriod {
		return fmt.Errorf("%w: days left %d outside [0, %d]", ErrInvalidAmount, r.DaysLeft, r.TotalDaysInPeriod)
	}
	if r.Credit < 0 || r.NewPlanCharge < 0 || r.AmountDue < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidAmount)
	}
	if want := max(0, r.NewPlanCharge-r.Credit); r.AmountDue != want {
		return fmt.Errorf("%w: amount due %d, expected %d", ErrInvalidAmount, r.AmountDue, want)
	}
	return nil
}

// Provider computes proration for a request.
type Provider interface {
	Calculate(ctx context.Context, req Request) (*Result, error)
}

// DaysLeft rounds the remaining period to whole days and clamps it.
func DaysLeft(periodEnd, now time.Time) int {
	days := math.Round(periodEnd.Sub(now).Hours() / 24)
	switch {
	case days < 0:
		return 0
	case days > TotalDaysInPeriod:
		return TotalDaysInPeriod
	default:
		return int(days)
	}
}

// PeriodEnd resolves the anchor for a request.
func PeriodEnd(periodEnd *time.Time, now time.Time) time.Time {
	if periodEnd != nil {
		return *periodEnd
	}
	return now.AddDate(0, 1, 0)
}

// prorate rounds the daily rate times days to the nearest unit. Credit and
// charge are rounded independently.
func prorate(price int64, daysLeft int) int64 {
	daily := float64(price) / TotalDaysInPeriod
	return int64(math.Round(daily * float64(daysLeft)))
}

// Compute is the local formula. It depends only on its arguments.
func Compute(current, target *plan.Plan, periodEnd *time.Time, now time.Time) *Result {
	daysLeft := DaysLeft(PeriodEnd(periodEnd, now), now)
	credit := prorate(current.Price, daysLeft)
	charge := prorate(target.Price, daysLeft)

	return &Result{
		ProrationDate:     now,
		DaysElapsed:       TotalDaysInPeriod - daysLeft,
		DaysLeft:          daysLeft,
		TotalDaysInPeriod: TotalDaysInPeriod,
		Credit:            credit,
		NewPlanCharge:     charge,
		AmountDue:         max(0, charge-credit),
		CurrentPlanID:     current.ID,
		NewPlanID:         target.ID,
		CurrentPlanName:   current.Name,
		NewPlanName:       target.Name,
		Source:            SourceLocal,
	}
}
