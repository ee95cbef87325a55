package state

import (
	"testing"
	"time"
)

// MockState is a test double for the State interface.
type MockState struct {
	ID            string
	OnEnterCalled bool
	OnExitCalled  bool
}

func (m *MockState) OnEnter() {
	m.OnEnterCalled = true
}

func (m *MockState) OnExit() {
	m.OnExitCalled = true
}

func (m *MockState) GetID() string {
	return m.ID
}

func (m *MockState) HandleAction(actor Player, msgID uint16, data []byte) error {
	return nil
}

func (m *MockState) reset() {
	m.OnEnterCalled = false
	m.OnExitCalled = false
}

func TestStateMachine_InitialState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	sm := NewBaseStateMachine(initialState)

	if !initialState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the initial state")
	}

	if sm.GetCurrentState() != State(initialState) {
		t.Error("GetCurrentState should return the initial state")
	}
}

func TestStateMachine_ChangeState(t *testing.T) {
	initialState := &MockState{ID: "initial"}
	nextState := &MockState{ID: "next"}

	sm := NewBaseStateMachine(initialState)
	initialState.reset()

	err := sm.ChangeState(nextState)
	if err != nil {
		t.Fatalf("ChangeState should not return an error, but got: %v", err)
	}

	if !initialState.OnExitCalled {
		t.Error("Expected OnExit to be called on the old state")
	}

	if !nextState.OnEnterCalled {
		t.Error("Expected OnEnter to be called on the new state")
	}

	if sm.GetCurrentState() != State(nextState) {
		t.Error("GetCurrentState should return the new state")
	}
}

// introspectingState queries the machine from its own OnEnter, the way
// states that broadcast a snapshot do.
type introspectingState struct {
	MockState
	machine  *BaseStateMachine
	observed string
}

func (s *introspectingState) OnEnter() {
	s.observed = s.machine.GetCurrentState().GetID()
}

func TestStateMachine_OnEnterMayQueryMachine(t *testing.T) {
	sm := NewBaseStateMachine(&MockState{ID: "initial"})
	next := &introspectingState{MockState: MockState{ID: "next"}}
	next.machine = sm

	done := make(chan error, 1)
	go func() { done <- sm.ChangeState(next) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("ChangeState failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ChangeState blocked while the entered state queried the machine")
	}

	if next.observed != "next" {
		t.Errorf("OnEnter observed state %q, want %q", next.observed, "next")
	}
}

func TestStateMachine_TransitionTable(t *testing.T) {
	stateA := &MockState{ID: "A"}
	stateB := &MockState{ID: "B"}
	stateC := &MockState{ID: "C"}

	sm := NewBaseStateMachine(stateA)
	sm.AddTransition("A", "B")

	// A has a table entry, so only B is reachable from it.
	if err := sm.ChangeState(stateC); err != ErrTransitionNotAllowed {
		t.Errorf("Expected ErrTransitionNotAllowed for A->C, got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "A" {
		t.Errorf("Expected current state to remain A, got %s", sm.GetCurrentState().GetID())
	}
	if stateA.OnExitCalled {
		t.Error("OnExit should not run when a transition is blocked")
	}
	if stateC.OnEnterCalled {
		t.Error("OnEnter should not run when a transition is blocked")
	}

	if err := sm.ChangeState(stateB); err != nil {
		t.Fatalf("Expected A->B to be allowed, got: %v", err)
	}
	if sm.GetCurrentState().GetID() != "B" {
		t.Errorf("Expected current state B, got %s", sm.GetCurrentState().GetID())
	}
}

func TestPhaseMachine_MonotonicTransitions(t *testing.T) {
	mk := func(id string) *MockState { return &MockState{ID: id} }

	cases := []struct {
		name    string
		from    string
		to      string
		allowed bool
	}{
		{"waiting to playing", PhaseWaiting, PhasePlaying, true},
		{"waiting cannot skip to voting", PhaseWaiting, PhaseVoting, false},
		{"waiting cannot end directly", PhaseWaiting, PhaseEnded, false},
		{"playing to arbitrating", PhasePlaying, PhaseArbitrating, true},
		{"playing cannot go back to waiting", PhasePlaying, PhaseWaiting, false},
		{"arbitrating to voting", PhaseArbitrating, PhaseVoting, true},
		{"arbitrating to ended", PhaseArbitrating, PhaseEnded, true},
		{"voting to ended", PhaseVoting, PhaseEnded, true},
		{"voting cannot reopen the round", PhaseVoting, PhasePlaying, false},
		{"ended is terminal", PhaseEnded, PhaseWaiting, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sm := NewPhaseMachine(mk(PhaseWaiting))

			// Walk the machine to the source phase first.
			path := map[string][]string{
				PhaseWaiting:     {},
				PhasePlaying:     {PhasePlaying},
				PhaseArbitrating: {PhasePlaying, PhaseArbitrating},
				PhaseVoting:      {PhasePlaying, PhaseArbitrating, PhaseVoting},
				PhaseEnded:       {PhasePlaying, PhaseArbitrating, PhaseEnded},
			}
			for _, id := range path[tc.from] {
				if err := sm.ChangeState(mk(id)); err != nil {
					t.Fatalf("Setup transition to %s failed: %v", id, err)
				}
			}

			err := sm.ChangeState(mk(tc.to))
			if tc.allowed && err != nil {
				t.Errorf("Expected %s->%s to be allowed, got: %v", tc.from, tc.to, err)
			}
			if !tc.allowed && err != ErrTransitionNotAllowed {
				t.Errorf("Expected %s->%s to be blocked, got: %v", tc.from, tc.to, err)
			}
		})
	}
}
