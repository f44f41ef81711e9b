package models

import (
	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

// State is the legal status of a request. The full lifecycle is data, not
// code: adjacency lives in the transitions table below so the legal-transition
// set is testable independently of the side effects it triggers.
type State string

const (
	StateDraft                  State = "Draft"
	StateSubmitted              State = "Submitted"
	StateAcknowledged           State = "Acknowledged"
	StateProcessing             State = "Processing"
	StateRFIIssued              State = "RFIIssued"
	StateRFIReceived            State = "RFIReceived"
	StatePendingDecision        State = "PendingDecision"
	StateApproved               State = "Approved"
	StateApprovedWithConditions State = "ApprovedWithConditions"
	StateDeclined               State = "Declined"
	StateWithdrawn              State = "Withdrawn"
	StateCancelled              State = "Cancelled"
	StateCompleted              State = "Completed"
	StateOnHold                 State = "OnHold"
	StateReturnedForRework      State = "ReturnedForRework"
	StateUnderAppeal            State = "UnderAppeal"
	StateAppealApproved         State = "AppealApproved"
	StateAppealDeclined         State = "AppealDeclined"
	StateExpired                State = "Expired"
	StateVoided                 State = "Voided"
	StateArchived               State = "Archived"
)

// transitions is the adjacency table: state → legal next states. Directional,
// no skipping. A target absent from its source's list is unreachable, full
// stop; the engine never substitutes a "closest valid" transition.
var transitions = map[State][]State{
	StateDraft:                  {StateSubmitted, StateCancelled},
	StateSubmitted:              {StateAcknowledged, StateCancelled, StateWithdrawn},
	StateAcknowledged:           {StateProcessing, StateWithdrawn},
	StateProcessing:             {StatePendingDecision, StateRFIIssued, StateOnHold, StateWithdrawn},
	StateRFIIssued:              {StateRFIReceived, StateProcessing},
	StateRFIReceived:            {StateProcessing, StateRFIIssued},
	StateOnHold:                 {StateProcessing},
	StatePendingDecision:        {StateApproved, StateApprovedWithConditions, StateDeclined, StateReturnedForRework},
	StateReturnedForRework:      {StateProcessing},
	StateApproved:               {StateCompleted},
	StateApprovedWithConditions: {StateCompleted},
	StateDeclined:               {StateUnderAppeal},
	StateUnderAppeal:            {StateAppealApproved, StateAppealDeclined},
	StateWithdrawn:              {},
	StateCancelled:              {},
	StateCompleted:              {},
	StateAppealApproved:         {},
	StateAppealDeclined:         {},
	StateExpired:                {},
	StateVoided:                 {},
	StateArchived:               {},
}

// decisionStates require manager authority: issuing or overturning a decision
// is never a staff-level action.
var decisionStates = map[State]bool{
	StateApproved:               true,
	StateApprovedWithConditions: true,
	StateDeclined:               true,
	StateAppealApproved:         true,
	StateAppealDeclined:         true,
}

// IsValid reports whether s is a member of the defined state set.
func (s State) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no transition leaves s.
func (s State) IsTerminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransitionTo reports whether target is adjacent to s. A state is never
// adjacent to itself: no-op transitions are invalid.
func (s State) CanTransitionTo(target State) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// NextStates returns a copy of the legal targets from s.
func (s State) NextStates() []State {
	return append([]State(nil), transitions[s]...)
}

// RequiredRole returns the minimum role needed to move a request into target.
func RequiredRole(target State) domain.Role {
	if decisionStates[target] {
		return domain.RoleManager
	}
	return domain.RoleStaff
}

// AllStates returns every defined state, for exhaustive table tests.
func AllStates() []State {
	out := make([]State, 0, len(transitions))
	for s := range transitions {
		out = append(out, s)
	}
	return out
}

// ParseState validates external input against the defined state set.
func ParseState(s string) (State, error) {
	state := State(s)
	if !state.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown state: "+s)
	}
	return state, nil
}
