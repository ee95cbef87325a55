package state

import (
	"encoding/json"
	"fmt"

	"github.com/wfunc/spygame/arbiter"
	"github.com/wfunc/spygame/logger"
	"github.com/wfunc/spygame/network"
)

// ArbitratingState runs the external outcome check. All game events are
// swallowed while it is current; the phase transition out of playing is
// what guarantees the check executes at most once per round.
type ArbitratingState struct {
	RoomStateBase
}

func NewArbitratingState(room RoomContext) *ArbitratingState {
	return &ArbitratingState{
		RoomStateBase: RoomStateBase{
			ID:   PhaseArbitrating,
			Room: room,
		},
	}
}

type checkingOutcomePayload struct {
	Message string `json:"message"`
}

type outcomeProgressPayload struct {
	Message  string `json:"message"`
	Identity string `json:"identity"`
}

type outcomeResultPayload struct {
	Success  bool            `json:"success"`
	Win      bool            `json:"win"`
	Reason   string          `json:"reason"`
	Identity string          `json:"identity,omitempty"`
	Match    *arbiter.Result `json:"match,omitempty"`
}

func (s *ArbitratingState) OnEnter() {
	data, _ := json.Marshal(checkingOutcomePayload{Message: "all players finished, checking match outcome"})
	s.Room.Broadcast(network.MsgTypeCheckingOutcome, data)

	// The delay gives clients time to subscribe to the result events
	// before the check resolves. It is part of the protocol contract.
	s.Room.ScheduleAfter(s.Room.Policy().ArbitrationDelay, s.run)
}

// run executes on a timer goroutine, outside the room lock. Every state
// read/write goes through Apply, and the check itself suspends unlocked.
func (s *ArbitratingState) run() {
	var identity string
	current := false
	s.Room.Apply(func() {
		if s.Room.CurrentState() != State(s) {
			return
		}
		current = true
		identity = selectIdentity(s.Room.OwnerName(), s.Room.Members())
	})
	if !current {
		return
	}

	if identity == "" {
		logger.Log.Infof("Room %s has no verifiable identity, falling back to voting", s.Room.GetID())
		s.Room.Apply(func() {
			if s.Room.CurrentState() != State(s) {
				return
			}
			data, _ := json.Marshal(outcomeResultPayload{
				Success: false,
				Reason:  "no_identity",
			})
			s.Room.Broadcast(network.MsgTypeOutcomeResult, data)
			s.enterVoting("no verifiable identity, entering the voting phase", nil)
		})
		return
	}

	s.Room.Apply(func() {
		if s.Room.CurrentState() != State(s) {
			return
		}
		data, _ := json.Marshal(outcomeProgressPayload{
			Message:  fmt.Sprintf("checking match history of %s", identity),
			Identity: identity,
		})
		s.Room.Broadcast(network.MsgTypeOutcomeProgress, data)
	})

	result, err := s.Room.CheckOutcome(identity)

	s.Room.Apply(func() {
		if s.Room.CurrentState() != State(s) {
			return
		}

		if err != nil {
			// Arbitration failure is never fatal; the round degrades
			// to voting whatever the error subtype was.
			logger.Log.Warnf("Outcome check failed for room %s: %v", s.Room.GetID(), err)
			data, _ := json.Marshal(outcomeResultPayload{
				Success:  false,
				Reason:   arbiter.FailureReason(err),
				Identity: identity,
			})
			s.Room.Broadcast(network.MsgTypeOutcomeResult, data)
			s.enterVoting("match lookup failed, entering the voting phase", nil)
			return
		}

		data, _ := json.Marshal(outcomeResultPayload{
			Success:  true,
			Win:      result.Win,
			Reason:   "match_resolved",
			Identity: identity,
			Match:    result,
		})
		s.Room.Broadcast(network.MsgTypeOutcomeResult, data)

		round := s.Room.Round()
		if result.Win {
			// A favorable match outcome ends the round in the
			// civilians' favor with nobody eliminated.
			s.Room.ChangeState(NewEndedState(s.Room, RoundResult{
				RoomID:     s.Room.GetID(),
				Spy:        round.Spy,
				Winner:     WinnerCivilian,
				Reason:     ReasonOutcomeResolved,
				Roles:      round.Roles,
				VoteCounts: map[string]int{},
			}))
			return
		}
		s.enterVoting("match was lost, entering the voting phase", result)
	})
}

// enterVoting must run under Apply with this state still current.
func (s *ArbitratingState) enterVoting(message string, apiResult *arbiter.Result) {
	if err := s.Room.ChangeState(NewVotingState(s.Room, message, apiResult)); err != nil {
		logger.Log.Errorf("Room %s failed to enter voting: %v", s.Room.GetID(), err)
	}
}

// selectIdentity picks the identity the round is checked against: the
// owner's when well-formed, otherwise the first well-formed one in join
// order, otherwise none.
func selectIdentity(owner string, members []Member) string {
	for _, m := range members {
		if m.Name == owner && arbiter.WellFormed(m.Identity) {
			return m.Identity
		}
	}
	for _, m := range members {
		if arbiter.WellFormed(m.Identity) {
			return m.Identity
		}
	}
	return ""
}
