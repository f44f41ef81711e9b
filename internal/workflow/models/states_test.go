package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/pkg/domain"
	dErrors "caseflow/pkg/domain-errors"
)

func TestStateValidity(t *testing.T) {
	t.Run("all defined states are valid", func(t *testing.T) {
		assert.Len(t, AllStates(), 21)
		for _, s := range AllStates() {
			assert.True(t, s.IsValid(), "state %s", s)
		}
	})

	t.Run("unknown state is invalid", func(t *testing.T) {
		assert.False(t, State("Pondering").IsValid())
	})
}

func TestTerminalStates(t *testing.T) {
	terminal := []State{
		StateWithdrawn, StateCancelled, StateCompleted,
		StateAppealApproved, StateAppealDeclined,
		StateExpired, StateVoided, StateArchived,
	}
	for _, s := range terminal {
		t.Run(string(s), func(t *testing.T) {
			assert.True(t, s.IsTerminal())
			assert.Empty(t, s.NextStates())
		})
	}

	t.Run("declined is not terminal while an appeal is possible", func(t *testing.T) {
		assert.False(t, StateDeclined.IsTerminal())
		assert.True(t, StateDeclined.CanTransitionTo(StateUnderAppeal))
	})
}

func TestCanTransitionTo(t *testing.T) {
	t.Run("legal adjacencies", func(t *testing.T) {
		cases := [][2]State{
			{StateDraft, StateSubmitted},
			{StateSubmitted, StateAcknowledged},
			{StateAcknowledged, StateProcessing},
			{StateProcessing, StateRFIIssued},
			{StateRFIIssued, StateRFIReceived},
			{StateRFIReceived, StateProcessing},
			{StateRFIReceived, StateRFIIssued},
			{StateOnHold, StateProcessing},
			{StateProcessing, StatePendingDecision},
			{StatePendingDecision, StateReturnedForRework},
			{StateReturnedForRework, StateProcessing},
			{StateApproved, StateCompleted},
			{StateUnderAppeal, StateAppealDeclined},
		}
		for _, c := range cases {
			assert.True(t, c[0].CanTransitionTo(c[1]), "%s -> %s", c[0], c[1])
		}
	})

	t.Run("no state is adjacent to itself", func(t *testing.T) {
		for _, s := range AllStates() {
			assert.False(t, s.CanTransitionTo(s), "state %s", s)
		}
	})

	t.Run("no skipping", func(t *testing.T) {
		assert.False(t, StateDraft.CanTransitionTo(StateAcknowledged))
		assert.False(t, StateSubmitted.CanTransitionTo(StateProcessing))
		assert.False(t, StateProcessing.CanTransitionTo(StateApproved))
	})

	t.Run("no transitions out of terminal states", func(t *testing.T) {
		for _, s := range AllStates() {
			if !s.IsTerminal() {
				continue
			}
			for _, target := range AllStates() {
				assert.False(t, s.CanTransitionTo(target), "%s -> %s", s, target)
			}
		}
	})

	t.Run("every adjacency target is a defined state", func(t *testing.T) {
		for _, s := range AllStates() {
			for _, next := range s.NextStates() {
				assert.True(t, next.IsValid(), "%s -> %s", s, next)
			}
		}
	})
}

func TestRequiredRole(t *testing.T) {
	t.Run("decision targets need a manager", func(t *testing.T) {
		for _, s := range []State{
			StateApproved, StateApprovedWithConditions, StateDeclined,
			StateAppealApproved, StateAppealDeclined,
		} {
			assert.Equal(t, domain.RoleManager, RequiredRole(s), "state %s", s)
		}
	})

	t.Run("everything else is staff level", func(t *testing.T) {
		for _, s := range []State{
			StateSubmitted, StateAcknowledged, StateProcessing,
			StateRFIIssued, StateOnHold, StateCompleted, StateUnderAppeal,
		} {
			assert.Equal(t, domain.RoleStaff, RequiredRole(s), "state %s", s)
		}
	})
}

func TestParseState(t *testing.T) {
	t.Run("round trips a defined state", func(t *testing.T) {
		s, err := ParseState("Processing")
		require.NoError(t, err)
		assert.Equal(t, StateProcessing, s)
	})

	t.Run("rejects unknown input", func(t *testing.T) {
		_, err := ParseState("processing")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}
