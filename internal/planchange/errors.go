package planchange

import (
	"errors"

	"github.com/railzwaylabs/planchange/internal/domain/billing"
	"github.com/railzwaylabs/planchange/internal/domain/plan"
	"github.com/railzwaylabs/planchange/internal/proration"
)

var (
	ErrFlowNotFound      = errors.New("plan change flow not found")
	ErrSamePlan          = errors.New("target plan is the current plan")
	ErrTargetRequired    = errors.New("target plan is required")
	ErrInvalidTransition = errors.New("invalid plan change transition")
	// ErrStale is returned to a caller whose result was superseded by a newer
	// selection or a cancellation.
	ErrStale = errors.New("plan change result superseded")
)

// FlowError is the failure shown to the user. Message never carries backend
// detail.
type FlowError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

// Error codes.
const (
	CodePlanNotFound      = "plan_not_found"
	CodeCalculationFailed = "calculation_unavailable"
	CodeCheckoutFailed    = "checkout_failed"
	CodeInvalidAmount     = "invalid_amount"
	CodeSamePlan          = "same_plan"
	CodeInvalidTransition = "invalid_transition"
	CodeSuperseded        = "superseded"
	CodeFlowNotFound      = "flow_not_found"
	CodeTargetRequired    = "target_required"
	CodeInternal          = "internal_error"
)

// Describe maps an error to a code and a short user-facing message.
func Describe(err error) FlowError {
	switch {
	case errors.Is(err, plan.ErrPlanNotFound):
		return FlowError{Code: CodePlanNotFound, Message: "The selected plan is not available."}
	case errors.Is(err, proration.ErrInvalidAmount):
		return FlowError{Code: CodeInvalidAmount, Message: "We could not verify the amount for this change. Please contact support."}
	case errors.Is(err, proration.ErrCalculationServiceUnavailable):
		return FlowError{Code: CodeCalculationFailed, Message: "We could not calculate the price change. Please try again.", Retryable: true}
	case errors.Is(err, billing.ErrCheckoutService):
		return FlowError{Code: CodeCheckoutFailed, Message: "We could not start checkout. Please try again.", Retryable: true}
	case errors.Is(err, ErrSamePlan):
		return FlowError{Code: CodeSamePlan, Message: "You are already on this plan."}
	case errors.Is(err, ErrTargetRequired):
		return FlowError{Code: CodeTargetRequired, Message: "Choose a plan first."}
	case errors.Is(err, ErrInvalidTransition):
		return FlowError{Code: CodeInvalidTransition, Message: "This action is not available right now."}
	case errors.Is(err, ErrStale):
		return FlowError{Code: CodeSuperseded, Message: "A newer selection replaced this one."}
	case errors.Is(err, ErrFlowNotFound):
		return FlowError{Code: CodeFlowNotFound, Message: "This plan change has expired. Please start again."}
	default:
		return FlowError{Code: CodeInternal, Message: "Something went wrong. Please try again.", Retryable: true}
	}
}
