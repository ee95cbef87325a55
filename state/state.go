package state

import (
	"errors"
	"sync"
)

// Phase ids. Transitions are monotonic forward; the only loop is the
// voting phase re-entering itself on a tied tally, which happens without a
// state change.
const (
	PhaseWaiting     = "waiting"
	PhasePlaying     = "playing"
	PhaseArbitrating = "arbitrating"
	PhaseVoting      = "voting"
	PhaseEnded       = "ended"
)

// Winner / reason values carried in round-ended payloads and results.
const (
	WinnerCivilian = "civilian"
	WinnerSpy      = "spy"

	ReasonOutcomeResolved = "outcome_resolved"
	ReasonVoting          = "voting"
	ReasonVoteLimit       = "vote_limit"
)

// StateMachine drives a room through its phases.
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
}

// State is one phase of a room. HandleAction receives every game event
// addressed to the room while the phase is current; events that do not
// apply to the phase are silent no-ops, since network delivery is neither
// ordered nor deduplicated.
type State interface {
	OnEnter()
	OnExit()
	GetID() string
	HandleAction(actor Player, msgID uint16, data []byte) error
}

// RosterWatcher is implemented by phases whose completion condition
// depends on the live roster size. Invoked under the room's lock after a
// player is removed mid-phase, so a departure cannot strand a room one
// signal or one ballot short.
type RosterWatcher interface {
	OnPlayerRemoved(name string)
}

// ErrTransitionNotAllowed is returned when a phase transition is not in
// the allowed set.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// BaseStateMachine enforces an explicit transition table: if the current
// state has registered targets, only those targets are reachable.
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]bool // fromState -> toState -> allowed
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]bool),
	}
	initialState.OnEnter()
	return machine
}

// NewPhaseMachine builds the machine with the round life-cycle table
// preloaded, starting in the waiting phase.
func NewPhaseMachine(initialState State) *BaseStateMachine {
	machine := NewBaseStateMachine(initialState)
	machine.AddTransition(PhaseWaiting, PhasePlaying)
	machine.AddTransition(PhasePlaying, PhaseArbitrating)
	machine.AddTransition(PhaseArbitrating, PhaseVoting)
	machine.AddTransition(PhaseArbitrating, PhaseEnded)
	machine.AddTransition(PhaseVoting, PhaseEnded)
	machine.MarkTerminal(PhaseEnded)
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	if targets, exists := sm.transitions[currentID]; exists {
		if !targets[newID] {
			sm.mutex.Unlock()
			return ErrTransitionNotAllowed
		}
	}

	oldState := sm.currentState
	sm.currentState = newState
	sm.mutex.Unlock()

	// Callbacks run with the machine lock released so an entered state may
	// query the machine (snapshots do). Callers serialize transitions; here
	// that is the owning room's lock.
	oldState.OnExit()
	newState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(fromID, toID string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]bool)
	}
	sm.transitions[fromID][toID] = true
}

// MarkTerminal registers a state with no reachable targets. Without an
// entry, a state would fall back to allow-all.
func (sm *BaseStateMachine) MarkTerminal(id string) {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if _, exists := sm.transitions[id]; !exists {
		sm.transitions[id] = make(map[string]bool)
	}
}

// RoomStateBase is embedded by every phase state.
type RoomStateBase struct {
	ID   string
	Room RoomContext
}

func (s *RoomStateBase) GetID() string {
	return s.ID
}

func (s *RoomStateBase) OnEnter() {
}

func (s *RoomStateBase) OnExit() {
}

func (s *RoomStateBase) HandleAction(actor Player, msgID uint16, data []byte) error {
	return nil
}
