package planchange

// State of a plan change flow.
type State string

const (
	StateIdle           State = "idle"
	StateCalculating    State = "calculating"
	StateCalculated     State = "calculated"
	StateConfirmPending State = "confirm_pending"
	StateProcessing     State = "processing"
	StateRedirected     State = "redirected"
	StateFailed         State = "failed"
)

// validTransitions lists every edge a flow may take. Moving to Idle is the
// cancel edge; Calculating to Calculating is a newer selection superseding an
// in-flight one.
var validTransitions = map[State][]State{
	StateIdle:           {StateCalculating},
	StateCalculating:    {StateCalculating, StateCalculated, StateFailed, StateIdle},
	StateCalculated:     {StateCalculating, StateConfirmPending, StateIdle},
	StateConfirmPending: {StateProcessing, StateCalculating, StateFailed, StateIdle},
	StateProcessing:     {StateRedirected, StateFailed, StateIdle},
	StateFailed:         {StateIdle, StateCalculated},
	StateRedirected:     {},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the flow is finished.
func (s State) Terminal() bool {
	return s == StateRedirected
}
